package ports

import "github.com/bft-labs/timelink/internal/domain"

// StatusIndicator renders a transfer state as a visual signal.
type StatusIndicator interface {
	Show(state domain.TransferState) error
}

// SignalWriter is the low-level generator that drives the indicator light.
// It receives one packed 24-bit color word per update.
type SignalWriter interface {
	WriteColor(word uint32) error
}
