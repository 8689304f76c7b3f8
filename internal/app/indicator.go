package app

import (
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// DefaultBrightness keeps the light dim; channels range 0-255.
const DefaultBrightness = 10

// Color is one RGB value with 0-255 channels.
type Color struct {
	R, G, B uint8
}

// Off is the dark color.
var Off = Color{}

// Pack returns the 24-bit word the signal generator shifts out, in GRB order
// (green in bits 16-23, red in 8-15, blue in 0-7).
func (c Color) Pack() uint32 {
	return uint32(c.B) | uint32(c.R)<<8 | uint32(c.G)<<16
}

// Indicator maps transfer states to colors and writes them to a SignalWriter.
// Error renders the same as Idle.
type Indicator struct {
	writer     ports.SignalWriter
	brightness uint8
}

// NewIndicator creates an indicator glue over writer.
func NewIndicator(writer ports.SignalWriter, brightness uint8) *Indicator {
	return &Indicator{writer: writer, brightness: brightness}
}

// ColorFor returns the color shown for state.
func (i *Indicator) ColorFor(state domain.TransferState) Color {
	switch state {
	case domain.TransferReceiving:
		return Color{G: i.brightness}
	default:
		return Off
	}
}

// Show writes the color for state.
func (i *Indicator) Show(state domain.TransferState) error {
	return i.writer.WriteColor(i.ColorFor(state).Pack())
}

var _ ports.StatusIndicator = (*Indicator)(nil)
