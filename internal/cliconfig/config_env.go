package cliconfig

import (
	"os"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "TIMELINK_"

// ApplyEnvConfig applies configuration from environment variables (TIMELINK_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("device", env("DEVICE"), &cfg.Device)
	s.setString("frame-format", env("FRAME_FORMAT"), &cfg.FrameFormat)
	s.setString("ntp-server", env("NTP_SERVER"), &cfg.NTPServer)
	s.setString("iface", env("IFACE"), &cfg.Iface)
	s.setString("network-ssid", env("NETWORK_SSID"), &cfg.NetworkSSID)
	s.setString("network-password", env("NETWORK_PASSWORD"), &cfg.NetworkPassword)
	s.setString("rtc", env("RTC"), &cfg.RTC)
	s.setString("rtc-path", env("RTC_PATH"), &cfg.RTCPath)
	s.setString("led", env("LED"), &cfg.LED)
	s.setString("sensor", env("SENSOR"), &cfg.Sensor)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setSignedIntFromString("timezone-offset", env("TIMEZONE_OFFSET"), &cfg.OffsetHours); err != nil {
		return err
	}

	durations := []struct {
		flag string
		key  string
		dst  *time.Duration
	}{
		{"ntp-timeout", "NTP_TIMEOUT", &cfg.NTPTimeout},
		{"send-interval", "SEND_INTERVAL", &cfg.SendInterval},
		{"tick-interval", "TICK_INTERVAL", &cfg.TickInterval},
		{"connect-poll", "CONNECT_POLL", &cfg.ConnectPoll},
		{"poll-interval", "POLL_INTERVAL", &cfg.PollInterval},
		{"attempt-timeout", "ATTEMPT_TIMEOUT", &cfg.AttemptTimeout},
		{"hold-duration", "HOLD_DURATION", &cfg.HoldDuration},
		{"display-interval", "DISPLAY_INTERVAL", &cfg.DisplayInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, env(d.key), d.dst); err != nil {
			return err
		}
	}

	if err := s.setIntFromString("connect-attempts", env("CONNECT_ATTEMPTS"), &cfg.ConnectAttempts); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", env("MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("brightness", env("BRIGHTNESS"), &cfg.Brightness); err != nil {
		return err
	}

	s.setBoolFromString("watch-config", env("WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}

// reloadableEnv maps the flags a running process may reload to their variables.
var reloadableEnv = map[string]string{
	"timezone-offset": "TIMEZONE_OFFSET",
	"send-interval":   "SEND_INTERVAL",
}

// Pinned returns the reloadable flags whose value came from the command line
// or the environment. A config file reload must not override them.
func Pinned(changed map[string]bool) map[string]bool {
	pinned := make(map[string]bool, len(reloadableEnv))
	for flag, key := range reloadableEnv {
		if changed[flag] || os.Getenv(EnvPrefix+key) != "" {
			pinned[flag] = true
		}
	}
	return pinned
}
