package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// Default receiver timing.
const (
	DefaultPollInterval   = 10 * time.Millisecond
	DefaultMaxRetries     = 100
	DefaultAttemptTimeout = 2 * time.Second
)

// ReceiverConfig contains configuration for one receive attempt.
type ReceiverConfig struct {
	// PollInterval is the sleep between empty reads.
	PollInterval time.Duration

	// MaxRetries bounds the number of empty reads per attempt.
	MaxRetries int

	// AttemptTimeout is the monotonic deadline of one attempt. Zero disables it.
	AttemptTimeout time.Duration

	// HoldDuration keeps the indicator on after a frame is applied.
	HoldDuration time.Duration
}

// ReceiverDeps are the collaborators of a Receiver.
type ReceiverDeps struct {
	Link      ports.SerialLink
	Format    codec.Format
	RTC       ports.RTCStore
	Indicator ports.StatusIndicator
	Sync      *domain.SynchronizationContext
	Logger    ports.Logger
	Clock     clockwork.Clock
}

// Receiver is the Sink-side state machine: it polls the link, validates and
// decodes frames, applies the timezone offset and sets the RTC.
type Receiver struct {
	config      ReceiverConfig
	link        ports.SerialLink
	unmarshaler codec.Unmarshaler
	rtc         ports.RTCStore
	indicator   ports.StatusIndicator
	sync        *domain.SynchronizationContext
	logger      ports.Logger
	clock       clockwork.Clock

	phase domain.ReceiverPhase
}

// NewReceiver creates a Receiver. A nil Clock uses the real clock and a nil
// Format uses the raw format.
func NewReceiver(config ReceiverConfig, deps ReceiverDeps) *Receiver {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Format == nil {
		deps.Format = codec.Raw{}
	}
	return &Receiver{
		config:      config,
		link:        deps.Link,
		unmarshaler: deps.Format.NewUnmarshaler(),
		rtc:         deps.RTC,
		indicator:   deps.Indicator,
		sync:        deps.Sync,
		logger:      deps.Logger,
		clock:       deps.Clock,
		phase:       domain.PhaseWaitingForFrame,
	}
}

// Phase returns the current state machine phase.
func (r *Receiver) Phase() domain.ReceiverPhase {
	return r.phase
}

// Attempt runs one synchronization attempt. It polls the link until a frame
// is handled, the retry budget or deadline is exhausted (ErrReceiveTimeout),
// or the link fails (ErrTransport). Every outcome leaves the machine waiting
// for the next frame with the indicator idle.
func (r *Receiver) Attempt(ctx context.Context) (domain.LocalTime, error) {
	r.phase = domain.PhaseWaitingForFrame

	var deadline time.Time
	if r.config.AttemptTimeout > 0 {
		deadline = r.clock.Now().Add(r.config.AttemptTimeout)
	}

	for retries := 0; ; {
		if err := ctx.Err(); err != nil {
			r.reset()
			return domain.LocalTime{}, err
		}

		buf, err := r.link.Read()
		if err != nil {
			r.fail()
			r.logger.Warn("link read failed", ports.Err(err))
			return domain.LocalTime{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}

		if len(buf) > 0 {
			lt, err := r.Handle(ctx, buf)
			if !errors.Is(err, codec.ErrIncomplete) {
				return lt, err
			}
		}

		retries++
		if retries >= r.config.MaxRetries {
			r.reset()
			return domain.LocalTime{}, fmt.Errorf("%w: %d empty reads", domain.ErrReceiveTimeout, retries)
		}
		if !deadline.IsZero() && !r.clock.Now().Before(deadline) {
			r.reset()
			return domain.LocalTime{}, fmt.Errorf("%w: deadline after %d reads", domain.ErrReceiveTimeout, retries)
		}
		if err := sleep(ctx, r.clock, r.config.PollInterval); err != nil {
			r.reset()
			return domain.LocalTime{}, err
		}
	}
}

// Handle processes the bytes of one read. Invalid input resets the indicator
// to idle and returns an error wrapping domain.ErrMalformedFrame or
// domain.ErrInvalidPayload; codec.ErrIncomplete means more bytes are needed.
func (r *Receiver) Handle(ctx context.Context, buf []byte) (domain.LocalTime, error) {
	r.show(domain.TransferReceiving)
	r.phase = domain.PhaseValidating

	epoch, err := r.unmarshaler.Feed(buf)
	if errors.Is(err, codec.ErrIncomplete) {
		return domain.LocalTime{}, err
	}
	if err != nil {
		r.logger.Warn("discarding frame", ports.Hex("data", buf), ports.Err(err))
		r.reset()
		return domain.LocalTime{}, err
	}

	return r.apply(ctx, epoch)
}

func (r *Receiver) apply(ctx context.Context, epoch domain.EpochValue) (domain.LocalTime, error) {
	r.phase = domain.PhaseApplying

	lt, err := r.sync.LocalFor(epoch)
	if err != nil {
		r.logger.Warn("discarding frame", ports.Epoch("epoch", uint32(epoch)), ports.Err(err))
		r.reset()
		return domain.LocalTime{}, err
	}

	if err := r.rtc.Set(ctx, lt); err != nil {
		r.fail()
		r.logger.Error("rtc update failed", ports.Err(err))
		return domain.LocalTime{}, fmt.Errorf("%w: rtc: %v", domain.ErrTransport, err)
	}
	r.sync.Commit(epoch, lt, r.clock.Now())

	r.logger.Info("rtc updated from link",
		ports.Epoch("epoch", uint32(epoch)),
		ports.Int("offset_hours", r.sync.OffsetHours()),
		ports.String("local", lt.String()),
		ports.Int("yearday", lt.YearDay),
	)

	holdErr := sleep(ctx, r.clock, r.config.HoldDuration)
	r.reset()
	if holdErr != nil {
		return lt, holdErr
	}
	return lt, nil
}

// fail passes through the Error phase and back to waiting.
func (r *Receiver) fail() {
	r.phase = domain.PhaseError
	r.show(domain.TransferError)
	r.reset()
}

// reset returns to waiting with the indicator idle.
func (r *Receiver) reset() {
	r.phase = domain.PhaseWaitingForFrame
	r.show(domain.TransferIdle)
}

func (r *Receiver) show(state domain.TransferState) {
	r.sync.SetTransfer(state)
	if r.indicator == nil {
		return
	}
	if err := r.indicator.Show(state); err != nil {
		r.logger.Debug("indicator", ports.Err(err))
	}
}
