package ports

import "context"

// Display draws a few short lines of text and flushes them.
type Display interface {
	Render(lines []string) error
}

// Reading is one labelled sensor value, already formatted for display
// (for example "22.40C").
type Reading struct {
	Label string
	Value string
}

// Sensor reads environmental values.
type Sensor interface {
	Read(ctx context.Context) ([]Reading, error)
}
