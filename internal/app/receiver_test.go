package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/timelink/internal/codec"
	"github.com/bft-labs/timelink/internal/domain"
)

type receiverFixture struct {
	link      *fakeLink
	rtc       *memRTC
	indicator *recordingIndicator
	sync      *domain.SynchronizationContext
	clock     clockwork.FakeClock
	receiver  *Receiver
}

func newReceiverFixture(t *testing.T, cfg ReceiverConfig, format codec.Format, offset int, reads ...readResult) *receiverFixture {
	t.Helper()
	f := &receiverFixture{
		link:      &fakeLink{reads: reads},
		rtc:       &memRTC{},
		indicator: &recordingIndicator{},
		sync:      domain.NewSynchronizationContext(offset, time.Minute),
		clock:     clockwork.NewFakeClock(),
	}
	f.receiver = NewReceiver(cfg, ReceiverDeps{
		Link:      f.link,
		Format:    format,
		RTC:       f.rtc,
		Indicator: f.indicator,
		Sync:      f.sync,
		Logger:    &mockLogger{},
		Clock:     f.clock,
	})
	return f
}

// instant has no sleeps so attempts run without advancing the fake clock.
var instant = ReceiverConfig{MaxRetries: 5}

func frame(epoch uint32) readResult {
	b := codec.Encode(epoch)
	return readResult{data: b[:]}
}

func TestReceiver_AppliesValidFrame(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 1, frame(1700000000))

	lt, err := f.receiver.Attempt(context.Background())
	require.NoError(t, err)

	want := domain.LocalTime{Year: 2023, Month: 11, Day: 14, Hour: 23, Minute: 13, Second: 20, Weekday: 1, YearDay: 318}
	assert.Equal(t, want, lt)

	stored, _ := f.rtc.Get(context.Background())
	assert.Equal(t, want, stored)

	snap := f.sync.Snapshot()
	assert.Equal(t, int64(1700003600), snap.LocalEpoch)
	assert.Equal(t, "Tue", snap.Weekday)
	assert.Equal(t, 318, snap.YearDay)

	assert.Equal(t, []domain.TransferState{domain.TransferReceiving, domain.TransferIdle}, f.indicator.States())
	assert.Equal(t, domain.PhaseWaitingForFrame, f.receiver.Phase())
}

func TestReceiver_PollsPastEmptyReads(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, readResult{}, readResult{}, frame(1746474098))

	lt, err := f.receiver.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mon 2025-05-05 19:41:38", lt.String())
	assert.Equal(t, 3, f.link.ReadCount())
}

func TestReceiver_RejectsZeroFrame(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, readResult{data: []byte{0, 0, 0, 0}})

	_, err := f.receiver.Attempt(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidPayload)

	assert.Zero(t, f.rtc.Sets(), "rtc must be untouched")
	assert.Equal(t, domain.TransferIdle, f.indicator.Last())
	assert.Zero(t, f.sync.Snapshot().SyncCount)
}

func TestReceiver_ShortReadIsInvalid(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, readResult{data: []byte{0x65, 0x53}})

	require.NotPanics(t, func() {
		_, err := f.receiver.Attempt(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})
	assert.Equal(t, domain.TransferIdle, f.indicator.Last())
	assert.Equal(t, domain.PhaseWaitingForFrame, f.receiver.Phase())
}

func TestReceiver_LongReadIsMalformed(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, readResult{data: []byte{0x65, 0x53, 0xf1, 0x00, 0x65}})

	_, err := f.receiver.Attempt(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
	assert.Zero(t, f.rtc.Sets())
}

func TestReceiver_RetryBudgetExhausted(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0)

	_, err := f.receiver.Attempt(context.Background())
	require.ErrorIs(t, err, domain.ErrReceiveTimeout)
	assert.Equal(t, 5, f.link.ReadCount())
	assert.Equal(t, []domain.TransferState{domain.TransferIdle}, f.indicator.States())
}

func TestReceiver_DeadlineEndsAttempt(t *testing.T) {
	cfg := ReceiverConfig{MaxRetries: 100, AttemptTimeout: time.Second}
	f := newReceiverFixture(t, cfg, nil, 0)
	f.link.onRead = func() { f.clock.Advance(300 * time.Millisecond) }

	_, err := f.receiver.Attempt(context.Background())
	require.ErrorIs(t, err, domain.ErrReceiveTimeout)
	assert.Equal(t, 4, f.link.ReadCount())
}

func TestReceiver_TransportErrorRecovers(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, readResult{err: errLink}, frame(1700000000))

	_, err := f.receiver.Attempt(context.Background())
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, []domain.TransferState{domain.TransferError, domain.TransferIdle}, f.indicator.States())
	assert.Equal(t, domain.PhaseWaitingForFrame, f.receiver.Phase())

	// The next attempt proceeds normally.
	_, err = f.receiver.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.rtc.Sets())
}

func TestReceiver_RTCFailureIsTransportError(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0, frame(1700000000))
	f.rtc.setErr = errors.New("i2c nack")

	_, err := f.receiver.Attempt(context.Background())
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Zero(t, f.sync.Snapshot().SyncCount)
	assert.Equal(t, domain.TransferIdle, f.indicator.Last())
}

func TestReceiver_SameEpochTwiceIsIdempotent(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 2, frame(1700000000), frame(1700000000))

	first, err := f.receiver.Attempt(context.Background())
	require.NoError(t, err)
	once, _ := f.rtc.Get(context.Background())

	second, err := f.receiver.Attempt(context.Background())
	require.NoError(t, err)
	twice, _ := f.rtc.Get(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, once, twice)
}

func TestReceiver_HoldsIndicatorWhileApplying(t *testing.T) {
	cfg := ReceiverConfig{MaxRetries: 5, HoldDuration: time.Second}
	f := newReceiverFixture(t, cfg, nil, 0, frame(1700000000))

	done := make(chan error, 1)
	go func() {
		_, err := f.receiver.Attempt(context.Background())
		done <- err
	}()

	f.clock.BlockUntil(1)
	assert.Equal(t, domain.TransferReceiving, f.indicator.Last())
	assert.Equal(t, 1, f.rtc.Sets())

	f.clock.Advance(time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, domain.TransferIdle, f.indicator.Last())
}

func TestReceiver_CheckedFormatAcrossReads(t *testing.T) {
	b := codec.Checked{}.Marshal(1700000000)
	f := newReceiverFixture(t, instant, codec.Checked{}, 0,
		readResult{data: b[:4]},
		readResult{},
		readResult{data: b[4:]},
	)

	_, err := f.receiver.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.EpochValue(1700000000), f.sync.Snapshot().LastEpoch)
}

func TestReceiver_ContextCanceled(t *testing.T) {
	f := newReceiverFixture(t, instant, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.receiver.Attempt(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.link.ReadCount())
}
