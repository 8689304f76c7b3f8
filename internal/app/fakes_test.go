package app

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// readResult is one scripted SerialLink.Read outcome.
type readResult struct {
	data []byte
	err  error
}

// fakeLink replays scripted reads and records writes.
type fakeLink struct {
	mu       sync.Mutex
	reads    []readResult
	readN    int
	writes   [][]byte
	writeErr error
	onRead   func()
}

func (l *fakeLink) Read() ([]byte, error) {
	l.mu.Lock()
	l.readN++
	var r readResult
	if len(l.reads) > 0 {
		r = l.reads[0]
		l.reads = l.reads[1:]
	}
	hook := l.onRead
	l.mu.Unlock()

	if hook != nil {
		hook()
	}
	return r.data, r.err
}

func (l *fakeLink) Write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	l.writes = append(l.writes, append([]byte(nil), p...))
	return nil
}

func (l *fakeLink) Writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.writes...)
}

func (l *fakeLink) ReadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readN
}

// fakeSource returns scripted epochs; once exhausted it repeats the last one.
type fakeSource struct {
	mu     sync.Mutex
	values []domain.EpochValue
	errs   []error
	calls  int
}

func (s *fakeSource) Now(ctx context.Context) (domain.EpochValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	if len(s.values) == 0 {
		return 1700000000, nil
	}
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	return s.values[i], nil
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeNetwork reports a settable readiness flag.
type fakeNetwork struct {
	mu         sync.Mutex
	connected  bool
	associates int
	checks     int
	disabled   bool
}

func (n *fakeNetwork) Associate(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.associates++
	return nil
}

func (n *fakeNetwork) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.checks++
	return n.connected && !n.disabled
}

func (n *fakeNetwork) Disable() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disabled = true
	return nil
}

func (n *fakeNetwork) SetConnected(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connected = v
}

func (n *fakeNetwork) Stats() (associates, checks int, disabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.associates, n.checks, n.disabled
}

// memRTC keeps one snapshot in memory.
type memRTC struct {
	mu      sync.Mutex
	current domain.LocalTime
	sets    int
	setErr  error
}

func (r *memRTC) Set(ctx context.Context, t domain.LocalTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.current = t
	r.sets++
	return nil
}

func (r *memRTC) Get(ctx context.Context) (domain.LocalTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

func (r *memRTC) Sets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// recordingIndicator records every state shown.
type recordingIndicator struct {
	mu     sync.Mutex
	states []domain.TransferState
}

func (i *recordingIndicator) Show(state domain.TransferState) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.states = append(i.states, state)
	return nil
}

func (i *recordingIndicator) States() []domain.TransferState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]domain.TransferState(nil), i.states...)
}

func (i *recordingIndicator) Last() domain.TransferState {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.states) == 0 {
		return domain.TransferIdle
	}
	return i.states[len(i.states)-1]
}

// recordingSignal records packed color words.
type recordingSignal struct {
	words []uint32
	err   error
}

func (s *recordingSignal) WriteColor(word uint32) error {
	if s.err != nil {
		return s.err
	}
	s.words = append(s.words, word)
	return nil
}

// recordingDisplay records rendered pages.
type recordingDisplay struct {
	pages [][]string
}

func (d *recordingDisplay) Render(lines []string) error {
	d.pages = append(d.pages, append([]string(nil), lines...))
	return nil
}

// staticSensor returns fixed readings.
type staticSensor struct {
	readings []ports.Reading
	reads    int
}

func (s *staticSensor) Read(ctx context.Context) ([]ports.Reading, error) {
	s.reads++
	return s.readings, nil
}

var errLink = errors.New("device disconnected")

var (
	_ ports.SerialLink      = (*fakeLink)(nil)
	_ ports.TimeSource      = (*fakeSource)(nil)
	_ ports.Network         = (*fakeNetwork)(nil)
	_ ports.RTCStore        = (*memRTC)(nil)
	_ ports.StatusIndicator = (*recordingIndicator)(nil)
	_ ports.SignalWriter    = (*recordingSignal)(nil)
	_ ports.Display         = (*recordingDisplay)(nil)
	_ ports.Sensor          = (*staticSensor)(nil)
)
