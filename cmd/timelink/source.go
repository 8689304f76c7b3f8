package main

import (
	"context"

	"github.com/bft-labs/timelink/internal/adapters/network"
	"github.com/bft-labs/timelink/internal/adapters/ntp"
	"github.com/bft-labs/timelink/internal/app"
	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
)

// connectionLog reports connection state changes.
type connectionLog struct {
	env *runtimeEnv
}

func (c connectionLog) OnConnectionChange(previous, current domain.ConnectionState, reason string) {
	c.env.log.Info().
		Str("from", previous.String()).
		Str("to", current.String()).
		Str("reason", reason).
		Msg("network")
}

func runSource(ctx context.Context, env *runtimeEnv) error {
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

	ind, err := newIndicator(env)
	if err != nil {
		return err
	}

	sc := domain.NewSynchronizationContext(cfg.OffsetHours, cfg.SendInterval)
	startWatcher(ctx, env, sc)

	net := network.NewInterface(network.Config{
		Iface:    cfg.Iface,
		SSID:     cfg.NetworkSSID,
		Password: cfg.NetworkPassword,
	}, nil, env.logger.With("network"))

	d := app.NewDistributor(app.DistributorConfig{
		TickInterval:    cfg.TickInterval,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectPoll:     cfg.ConnectPoll,
		HoldDuration:    cfg.HoldDuration,
	}, app.DistributorDeps{
		Network:   net,
		Source:    ntp.NewSource(cfg.NTPServer, cfg.NTPTimeout, env.logger.With("ntp")),
		Link:      link,
		Format:    format,
		Indicator: ind,
		Sync:      sc,
		Logger:    env.logger.With("distributor"),
		Emitter:   connectionLog{env: env},
	})

	// Leave the light off on exit.
	defer ind.Show(domain.TransferIdle)

	return finish(d.Run(ctx))
}
