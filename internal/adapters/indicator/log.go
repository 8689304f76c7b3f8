package indicator

import (
	"sync"

	"github.com/bft-labs/timelink/internal/ports"
)

// Log reports color changes through the logger, for hosts without a light.
type Log struct {
	mu     sync.Mutex
	logger ports.Logger
	last   uint32
	seen   bool
}

// NewLog creates a Log writer.
func NewLog(logger ports.Logger) *Log {
	return &Log{logger: logger}
}

// WriteColor logs word when it differs from the previous one.
func (l *Log) WriteColor(word uint32) error {
	l.mu.Lock()
	changed := !l.seen || word != l.last
	l.last, l.seen = word, true
	l.mu.Unlock()

	if !changed {
		return nil
	}
	r, g, b := Channels(word)
	l.logger.Debug("indicator",
		ports.Bool("on", word != 0),
		ports.Int("r", int(r)),
		ports.Int("g", int(g)),
		ports.Int("b", int(b)),
	)
	return nil
}

var _ ports.SignalWriter = (*Log)(nil)
