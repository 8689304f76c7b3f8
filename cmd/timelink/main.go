package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/timelink/internal/adapters/log"
	"github.com/bft-labs/timelink/internal/adapters/indicator"
	"github.com/bft-labs/timelink/internal/adapters/serial"
	"github.com/bft-labs/timelink/internal/app"
	"github.com/bft-labs/timelink/internal/cliconfig"
	"github.com/bft-labs/timelink/internal/configwatch"
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

const longHelp = `Distribute wall-clock time over a serial line.

The source end fetches the time from an NTP server and writes it to the
serial device once per interval. The sink end reads those frames, applies
its timezone offset and sets its real-time clock.

Both ends must agree on --frame-format. Settings come from flags, then
TIMELINK_* environment variables, then the config file.`

var exampleUsage = strings.TrimSpace(`
  timelink source --device /dev/ttyS0 --network-ssid lab
  timelink sink --device /dev/ttyS0 --timezone-offset 1 --rtc hw
  timelink sink --config $HOME/.timelink/config.toml --watch-config
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// runtimeEnv is what both roles need once configuration is resolved.
type runtimeEnv struct {
	cfg     cliconfig.Config
	cfgFile string // empty when no file was loaded
	changed map[string]bool
	log     zerolog.Logger
	logger  *logAdapter.ZerologAdapter
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "timelink",
		Short:         "Distribute wall-clock time over a serial line",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// resolve layers file, env and flags, then validates for one role.
	resolve := func(cmd *cobra.Command, validate func(*cliconfig.Config) error) (*runtimeEnv, error) {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		// Build set of changed flags
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		loaded := ""
		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return nil, err
			}
			loaded = cfgFile
		}

		// Environment overrides the file; flags override both.
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return nil, err
		}

		if err := validate(&cfg); err != nil {
			return nil, err
		}

		runLog, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		runLog.Info().Interface("config", cfg.Masked()).Str("config_file", loaded).Msg("configuration")

		return &runtimeEnv{
			cfg:     cfg,
			cfgFile: loaded,
			changed: changed,
			log:     runLog,
			logger:  logAdapter.NewZerologAdapterWithLogger(runLog),
		}, nil
	}

	source := &cobra.Command{
		Use:   "source",
		Short: "Fetch network time and send it over the serial link",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := resolve(cmd, (*cliconfig.Config).ValidateSource)
			if err != nil {
				return err
			}
			return runSource(signalContext(env.log), env)
		},
	}

	sink := &cobra.Command{
		Use:   "sink",
		Short: "Receive time frames and set the real-time clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := resolve(cmd, (*cliconfig.Config).ValidateSink)
			if err != nil {
				return err
			}
			return runSink(signalContext(env.log), env)
		},
	}

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := serial.ListPorts()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	// Flags shared by both roles
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.timelink/config.toml)")
	pf.StringVar(&cfg.Device, "device", cfg.Device, "serial device")
	pf.StringVar(&cfg.FrameFormat, "frame-format", cfg.FrameFormat, "frame format: raw or checked (both ends must match)")
	pf.IntVar(&cfg.OffsetHours, "timezone-offset", cfg.OffsetHours, "whole hours added to UTC on the sink")
	pf.DurationVar(&cfg.HoldDuration, "hold-duration", cfg.HoldDuration, "how long the indicator stays on after a transfer")
	pf.StringVar(&cfg.LED, "led", cfg.LED, "LED class device name under /sys/class/leds (default: log only)")
	pf.IntVar(&cfg.Brightness, "brightness", cfg.Brightness, "indicator brightness 0-255")
	pf.BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload timezone offset and send interval when the config file changes")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	sf := source.Flags()
	sf.StringVar(&cfg.NTPServer, "ntp-server", cfg.NTPServer, "NTP server to query")
	sf.DurationVar(&cfg.NTPTimeout, "ntp-timeout", cfg.NTPTimeout, "NTP query timeout")
	sf.StringVar(&cfg.Iface, "iface", cfg.Iface, "network interface to bring up (default: any)")
	sf.StringVar(&cfg.NetworkSSID, "network-ssid", cfg.NetworkSSID, "wifi network to associate with (default: leave to the system)")
	sf.StringVar(&cfg.NetworkPassword, "network-password", cfg.NetworkPassword, "wifi password (prefer TIMELINK_NETWORK_PASSWORD)")
	sf.DurationVar(&cfg.SendInterval, "send-interval", cfg.SendInterval, "interval between frames")
	sf.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "how often the loop checks the network and the interval")
	sf.IntVar(&cfg.ConnectAttempts, "connect-attempts", cfg.ConnectAttempts, "readiness checks before giving up on the network")
	sf.DurationVar(&cfg.ConnectPoll, "connect-poll", cfg.ConnectPoll, "delay between readiness checks")

	kf := sink.Flags()
	kf.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "delay between empty reads")
	kf.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "empty reads per receive attempt")
	kf.DurationVar(&cfg.AttemptTimeout, "attempt-timeout", cfg.AttemptTimeout, "deadline of one receive attempt (0 disables)")
	kf.DurationVar(&cfg.DisplayInterval, "display-interval", cfg.DisplayInterval, "display refresh interval")
	kf.StringVar(&cfg.RTC, "rtc", cfg.RTC, "clock store: file or hw")
	kf.StringVar(&cfg.RTCPath, "rtc-path", cfg.RTCPath, "snapshot file for --rtc file (default: $HOME/.timelink/rtc.json)")
	kf.StringVar(&cfg.Sensor, "sensor", cfg.Sensor, "hwmon or iio device directory for the display's sensor line")

	root.AddCommand(source, sink, portsCmd)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("timelink")
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(log zerolog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
		cancel()
	}()
	return ctx
}

// openLink opens the serial device, listing the available ones on failure.
func openLink(env *runtimeEnv) (*serial.Port, error) {
	link, err := serial.Open(serial.Config{Device: env.cfg.Device})
	if err == nil {
		return link, nil
	}
	if names, lerr := serial.ListPorts(); lerr == nil {
		env.log.Warn().Strs("available", names).Msg("could not open serial device")
	}
	return nil, err
}

// newIndicator drives the LED when one is configured, otherwise logs.
func newIndicator(env *runtimeEnv) (*app.Indicator, error) {
	var writer ports.SignalWriter = indicator.NewLog(env.logger.With("indicator"))
	if env.cfg.LED != "" {
		led, err := indicator.NewSysfs("", env.cfg.LED)
		if err != nil {
			return nil, err
		}
		writer = led
	}
	return app.NewIndicator(writer, uint8(env.cfg.Brightness)), nil
}

// startWatcher reloads the config file in the background when enabled.
func startWatcher(ctx context.Context, env *runtimeEnv, sc *domain.SynchronizationContext) {
	if !env.cfg.WatchConfig {
		return
	}
	if env.cfgFile == "" {
		env.log.Warn().Msg("watch-config set but no config file was loaded")
		return
	}
	w := configwatch.New(env.cfgFile, sc, cliconfig.Pinned(env.changed), env.logger.With("configwatch"))
	go func() {
		if err := w.Run(ctx); err != nil {
			env.log.Warn().Err(err).Msg("config watcher stopped")
		}
	}()
}

// finish maps a loop's exit to the command result.
func finish(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
