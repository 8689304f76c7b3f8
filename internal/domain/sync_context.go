package domain

import (
	"sync"
	"time"
)

// SynchronizationContext carries the state that both protocol loops read and
// update: the configured offset and interval, the last accepted epoch and the
// calendar values derived from it.
//
// The protocol loop owns it. The mutex exists only for the config watcher,
// which may change OffsetHours and SendInterval from its own goroutine.
type SynchronizationContext struct {
	mu sync.RWMutex

	offsetHours  int
	sendInterval time.Duration

	lastEpoch  EpochValue
	localEpoch int64
	local      LocalTime
	lastSync   time.Time
	syncCount  uint64
	transfer   TransferState
}

// SyncSnapshot is a consistent copy of a SynchronizationContext.
type SyncSnapshot struct {
	OffsetHours  int
	SendInterval time.Duration
	LastEpoch    EpochValue
	LocalEpoch   int64
	Local        LocalTime
	Weekday      string
	YearDay      int
	LastSync     time.Time
	SyncCount    uint64
	Transfer     TransferState
}

// NewSynchronizationContext creates a context with the given offset and send interval.
func NewSynchronizationContext(offsetHours int, sendInterval time.Duration) *SynchronizationContext {
	return &SynchronizationContext{
		offsetHours:  offsetHours,
		sendInterval: sendInterval,
		transfer:     TransferIdle,
	}
}

// OffsetHours returns the whole-hour timezone offset.
func (c *SynchronizationContext) OffsetHours() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offsetHours
}

// SetOffsetHours changes the offset applied to subsequent frames.
func (c *SynchronizationContext) SetOffsetHours(hours int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetHours = hours
}

// SendInterval returns the Source's send interval.
func (c *SynchronizationContext) SendInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sendInterval
}

// SetSendInterval changes the Source's send interval. Non-positive values are ignored.
func (c *SynchronizationContext) SetSendInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendInterval = d
}

// LocalFor derives the local time of epoch using the current offset without
// recording it. Returns ErrInvalidPayload for the reserved zero value.
func (c *SynchronizationContext) LocalFor(epoch EpochValue) (LocalTime, error) {
	if !epoch.Valid() {
		return LocalTime{}, ErrInvalidPayload
	}
	return LocalTimeFromEpoch(epoch.LocalEpoch(c.OffsetHours())), nil
}

// Commit records epoch and its derived local time as the latest accepted value.
func (c *SynchronizationContext) Commit(epoch EpochValue, local LocalTime, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastEpoch = epoch
	c.localEpoch = local.Time().Unix()
	c.local = local
	c.lastSync = at
	c.syncCount++
}

// Apply derives the local time of epoch and commits it.
func (c *SynchronizationContext) Apply(epoch EpochValue, at time.Time) (LocalTime, error) {
	local, err := c.LocalFor(epoch)
	if err != nil {
		return LocalTime{}, err
	}
	c.Commit(epoch, local, at)
	return local, nil
}

// SetTransfer records the current transfer state.
func (c *SynchronizationContext) SetTransfer(s TransferState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfer = s
}

// Transfer returns the current transfer state.
func (c *SynchronizationContext) Transfer() TransferState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transfer
}

// Snapshot returns a consistent copy of the context.
func (c *SynchronizationContext) Snapshot() SyncSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := SyncSnapshot{
		OffsetHours:  c.offsetHours,
		SendInterval: c.sendInterval,
		LastEpoch:    c.lastEpoch,
		LocalEpoch:   c.localEpoch,
		Local:        c.local,
		LastSync:     c.lastSync,
		SyncCount:    c.syncCount,
		Transfer:     c.transfer,
	}
	if c.syncCount > 0 {
		s.Weekday = WeekdayName(c.local.Weekday)
		s.YearDay = c.local.YearDay
	}
	return s
}
