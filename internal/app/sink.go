package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// Default sink loop timing.
const (
	DefaultDisplayInterval = time.Second
	DefaultIntroDuration   = 3 * time.Second
	DefaultSensorHold      = 5
)

// introPages is shown once at startup, one page per IntroDuration.
var introPages = [][]string{
	{"timelink sink", "epoch time", "via serial"},
	{"from", "timelink", "source"},
}

// SinkConfig contains configuration for the Sink's outer loop.
type SinkConfig struct {
	DisplayInterval time.Duration
	IntroDuration   time.Duration

	// SensorHold is the number of refreshes one sensor reading stays on screen.
	SensorHold int
}

// SinkDeps are the collaborators of a SinkLoop. Display and Sensor may be nil.
type SinkDeps struct {
	Receiver *Receiver
	RTC      ports.RTCStore
	Display  ports.Display
	Sensor   ports.Sensor
	Sync     *domain.SynchronizationContext
	Logger   ports.Logger
	Clock    clockwork.Clock
}

// SinkLoop alternates one bounded receive attempt with one display refresh.
// No receive error stops it; only ctx does.
type SinkLoop struct {
	config   SinkConfig
	receiver *Receiver
	rtc      ports.RTCStore
	display  ports.Display
	sensor   ports.Sensor
	sync     *domain.SynchronizationContext
	logger   ports.Logger
	clock    clockwork.Clock
	backoff  *backoff

	sensorIdx  int
	holdCount  int
	sensorLine string
}

// NewSinkLoop creates a SinkLoop.
func NewSinkLoop(config SinkConfig, deps SinkDeps) *SinkLoop {
	if config.SensorHold <= 0 {
		config.SensorHold = DefaultSensorHold
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &SinkLoop{
		config:   config,
		receiver: deps.Receiver,
		rtc:      deps.RTC,
		display:  deps.Display,
		sensor:   deps.Sensor,
		sync:     deps.Sync,
		logger:   deps.Logger,
		clock:    deps.Clock,
		backoff:  newBackoff(deps.Clock, DefaultBackoffInitial, DefaultBackoffMax),
	}
}

// Run executes the loop until ctx is done.
func (s *SinkLoop) Run(ctx context.Context) error {
	if err := s.intro(ctx); err != nil {
		return err
	}

	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
		if err := sleep(ctx, s.clock, s.config.DisplayInterval); err != nil {
			return err
		}
	}
}

// Step performs one receive attempt and one display refresh. It only
// returns an error when ctx is done.
func (s *SinkLoop) Step(ctx context.Context) error {
	_, err := s.receiver.Attempt(ctx)
	switch {
	case err == nil:
		s.backoff.Reset()
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, domain.ErrTransport):
		s.logger.Warn("transport error, backing off",
			ports.Err(err),
			ports.Duration("backoff", s.backoff.Current()),
		)
		if err := s.backoff.Sleep(ctx); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrReceiveTimeout):
		s.logger.Debug("no frame this cycle")
	default:
		s.logger.Debug("frame rejected", ports.Err(err))
	}

	s.refresh(ctx)
	return nil
}

// Lines returns what the display shows for the current RTC snapshot.
func (s *SinkLoop) Lines(ctx context.Context) []string {
	lt, err := s.rtc.Get(ctx)
	if err != nil {
		s.logger.Warn("rtc read failed", ports.Err(err))
		return []string{s.sensorLine, "rtc error"}
	}
	if lt.IsZero() {
		return []string{s.sensorLine, "waiting for", "time frame"}
	}

	lines := []string{
		s.sensorLine,
		lt.Date(),
		fmt.Sprintf("%s %s", domain.WeekdayName(lt.Weekday), lt.Clock()),
	}
	if snap := s.sync.Snapshot(); snap.SyncCount > 0 {
		lines = append(lines, fmt.Sprintf("%s yday %d", snap.Weekday, snap.YearDay))
	}
	return lines
}

func (s *SinkLoop) refresh(ctx context.Context) {
	s.updateSensorLine(ctx)
	if s.display == nil {
		return
	}
	if err := s.display.Render(s.Lines(ctx)); err != nil {
		s.logger.Warn("display render failed", ports.Err(err))
	}
}

// updateSensorLine rotates through readings, holding each one for
// SensorHold refreshes so the view stays calm.
func (s *SinkLoop) updateSensorLine(ctx context.Context) {
	if s.sensor == nil {
		return
	}
	if s.holdCount == 0 {
		readings, err := s.sensor.Read(ctx)
		if err != nil {
			s.logger.Debug("sensor read failed", ports.Err(err))
		}
		if len(readings) > 0 {
			r := readings[s.sensorIdx%len(readings)]
			s.sensorLine = fmt.Sprintf("%s: %s", r.Label, r.Value)
			s.sensorIdx = (s.sensorIdx + 1) % len(readings)
		}
	}
	s.holdCount++
	if s.holdCount >= s.config.SensorHold {
		s.holdCount = 0
	}
}

func (s *SinkLoop) intro(ctx context.Context) error {
	if s.display == nil || s.config.IntroDuration <= 0 {
		return nil
	}
	for _, page := range introPages {
		if err := s.display.Render(page); err != nil {
			s.logger.Warn("display render failed", ports.Err(err))
			return nil
		}
		if err := sleep(ctx, s.clock, s.config.IntroDuration); err != nil {
			return err
		}
	}
	return nil
}
