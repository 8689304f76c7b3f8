package main

import (
	"context"
	"os"

	"github.com/bft-labs/timelink/internal/adapters/display"
	"github.com/bft-labs/timelink/internal/adapters/rtc"
	"github.com/bft-labs/timelink/internal/adapters/sensor"
	"github.com/bft-labs/timelink/internal/app"
	"github.com/bft-labs/timelink/internal/cliconfig"
	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

func openRTC(cfg cliconfig.Config) (ports.RTCStore, error) {
	if cfg.RTC == cliconfig.RTCHardware {
		return rtc.OpenHardware()
	}
	return rtc.NewFileStore(cfg.RTCPath, nil), nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func runSink(ctx context.Context, env *runtimeEnv) error {
	cfg := env.cfg

	format, err := codec.ParseFormat(cfg.FrameFormat)
	if err != nil {
		return err
	}
	link, err := openLink(env)
	if err != nil {
		return err
	}
	defer link.Close()

	store, err := openRTC(cfg)
	if err != nil {
		return err
	}
	ind, err := newIndicator(env)
	if err != nil {
		return err
	}

	var sens ports.Sensor
	if cfg.Sensor != "" {
		h, err := sensor.NewHwmon(cfg.Sensor)
		if err != nil {
			env.log.Warn().Err(err).Msg("sensor disabled")
		} else {
			sens = h
		}
	}

	sc := domain.NewSynchronizationContext(cfg.OffsetHours, cfg.SendInterval)
	startWatcher(ctx, env, sc)

	receiver := app.NewReceiver(app.ReceiverConfig{
		PollInterval:   cfg.PollInterval,
		MaxRetries:     cfg.MaxRetries,
		AttemptTimeout: cfg.AttemptTimeout,
		HoldDuration:   cfg.HoldDuration,
	}, app.ReceiverDeps{
		Link:      link,
		Format:    format,
		RTC:       store,
		Indicator: ind,
		Sync:      sc,
		Logger:    env.logger.With("receiver"),
	})

	loop := app.NewSinkLoop(app.SinkConfig{
		DisplayInterval: cfg.DisplayInterval,
		IntroDuration:   app.DefaultIntroDuration,
	}, app.SinkDeps{
		Receiver: receiver,
		RTC:      store,
		Display:  display.NewTerminal(os.Stdout, isTerminal(os.Stdout)),
		Sensor:   sens,
		Sync:     sc,
		Logger:   env.logger.With("sink"),
	})

	defer ind.Show(domain.TransferIdle)

	return finish(loop.Run(ctx))
}
