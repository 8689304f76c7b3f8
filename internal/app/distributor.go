package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// Default distributor timing.
const (
	DefaultSendInterval    = 60 * time.Second
	DefaultTickInterval    = 10 * time.Second
	DefaultConnectAttempts = 10
	DefaultConnectPoll     = time.Second
	DefaultHoldDuration    = time.Second
)

// DistributorConfig contains configuration for the Source loop.
// The send interval lives in the SynchronizationContext so it can be reloaded.
type DistributorConfig struct {
	TickInterval    time.Duration
	ConnectAttempts int
	ConnectPoll     time.Duration
	HoldDuration    time.Duration
}

// DistributorDeps are the collaborators of a Distributor.
type DistributorDeps struct {
	Network   ports.Network
	Source    ports.TimeSource
	Link      ports.SerialLink
	Format    codec.Format
	Indicator ports.StatusIndicator
	Sync      *domain.SynchronizationContext
	Logger    ports.Logger
	Clock     clockwork.Clock
	Emitter   ConnectionEmitter
}

// Distributor is the Source-side loop: it keeps the network associated,
// fetches the time on a fixed interval and writes one frame per cycle.
type Distributor struct {
	config    DistributorConfig
	network   ports.Network
	source    ports.TimeSource
	link      ports.SerialLink
	format    codec.Format
	indicator ports.StatusIndicator
	sync      *domain.SynchronizationContext
	logger    ports.Logger
	clock     clockwork.Clock
	conn      *Connection

	lastCycle time.Time
}

// NewDistributor creates a Distributor. A nil Clock uses the real clock and a
// nil Format uses the raw format.
func NewDistributor(config DistributorConfig, deps DistributorDeps) *Distributor {
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = DefaultConnectAttempts
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Format == nil {
		deps.Format = codec.Raw{}
	}
	return &Distributor{
		config:    config,
		network:   deps.Network,
		source:    deps.Source,
		link:      deps.Link,
		format:    deps.Format,
		indicator: deps.Indicator,
		sync:      deps.Sync,
		logger:    deps.Logger,
		clock:     deps.Clock,
		conn:      NewConnection(deps.Logger, deps.Emitter),
	}
}

// State returns the current connection state.
func (d *Distributor) State() domain.ConnectionState {
	return d.conn.State()
}

// Run executes the Source loop until ctx is done or the network cannot be
// associated, in which case the interface is disabled and the returned error
// wraps domain.ErrNetworkUnavailable.
func (d *Distributor) Run(ctx context.Context) error {
	d.logger.Info("distributor started",
		ports.Duration("send_interval", d.sync.SendInterval()),
		ports.Duration("tick", d.config.TickInterval),
		ports.String("format", d.format.Name()),
	)

	for {
		switch {
		case d.conn.State() != domain.ConnConnected:
			if err := d.connect(ctx); err != nil {
				return err
			}
			// First sync on every entry to Connected, regardless of the timer.
			_ = d.SendCycle(ctx)

		case !d.network.Connected():
			d.logger.Warn("network link lost")
			if err := d.conn.TransitionTo(domain.ConnConnecting, "link lost"); err != nil {
				return err
			}
			continue

		case d.clock.Since(d.lastCycle) >= d.sync.SendInterval():
			_ = d.SendCycle(ctx)
		}

		if err := sleep(ctx, d.clock, d.config.TickInterval); err != nil {
			return err
		}
	}
}

// connect associates with the network, polling readiness up to
// ConnectAttempts times, ConnectPoll apart.
func (d *Distributor) connect(ctx context.Context) error {
	if d.conn.State() == domain.ConnDisconnected {
		if err := d.conn.TransitionTo(domain.ConnConnecting, "start"); err != nil {
			return err
		}
	}

	if err := d.network.Associate(ctx); err != nil {
		d.logger.Warn("network association request failed", ports.Err(err))
	}

	for attempt := 1; attempt <= d.config.ConnectAttempts; attempt++ {
		if d.network.Connected() {
			return d.conn.TransitionTo(domain.ConnConnected, fmt.Sprintf("ready after %d checks", attempt))
		}
		if attempt == 1 {
			d.logger.Info("waiting for network")
		}
		if attempt < d.config.ConnectAttempts {
			if err := sleep(ctx, d.clock, d.config.ConnectPoll); err != nil {
				return err
			}
		}
	}

	if err := d.conn.TransitionTo(domain.ConnFailed, "no association"); err != nil {
		return err
	}
	if err := d.network.Disable(); err != nil {
		d.logger.Error("disable network", ports.Err(err))
	}
	d.logger.Error("network connection failed, networking disabled",
		ports.Int("attempts", d.config.ConnectAttempts),
	)
	return fmt.Errorf("%w: %d readiness checks failed", domain.ErrNetworkUnavailable, d.config.ConnectAttempts)
}

// SendCycle fetches the time and writes one frame. A time source failure
// skips the cycle; the next attempt waits for the next interval.
func (d *Distributor) SendCycle(ctx context.Context) error {
	d.lastCycle = d.clock.Now()

	epoch, err := d.source.Now(ctx)
	if err != nil {
		d.logger.Warn("time source failed, skipping cycle", ports.Err(err))
		return err
	}
	if !epoch.Valid() {
		d.logger.Warn("time source returned zero, skipping cycle")
		return fmt.Errorf("%w: zero epoch", domain.ErrTimeSourceFailure)
	}

	utc := epoch.Time()
	d.logger.Info("datetime from time source",
		ports.String("datetime", fmt.Sprintf("%s %sZ yday %d",
			utc.Weekday().String()[:3], utc.Format("2006-01-02T15:04:05"), utc.YearDay())),
		ports.Epoch("epoch", uint32(epoch)),
	)

	frame := d.format.Marshal(epoch)
	d.show(domain.TransferReceiving)
	if err := d.link.Write(frame); err != nil {
		d.show(domain.TransferIdle)
		d.logger.Error("write frame", ports.Err(err))
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if _, err := d.sync.Apply(epoch, d.lastCycle); err != nil {
		d.logger.Warn("record sent epoch", ports.Err(err))
	}
	d.logger.Info("frame sent",
		ports.Epoch("epoch", uint32(epoch)),
		ports.Hex("frame", frame),
	)

	err = sleep(ctx, d.clock, d.config.HoldDuration)
	d.show(domain.TransferIdle)
	return err
}

func (d *Distributor) show(state domain.TransferState) {
	d.sync.SetTransfer(state)
	if d.indicator == nil {
		return
	}
	if err := d.indicator.Show(state); err != nil {
		d.logger.Debug("indicator", ports.Err(err))
	}
}
