package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// ConnectionEmitter is called when the Source's connection state changes.
type ConnectionEmitter interface {
	OnConnectionChange(previous, current domain.ConnectionState, reason string)
}

// Connection manages the Source's network association state machine:
//
//	Disconnected -> Connecting -> Connected -> Connecting (link lost)
//	                Connecting -> Failed
//
// Failed is terminal until Reset, which models an external restart.
type Connection struct {
	mu      sync.RWMutex
	state   domain.ConnectionState
	logger  ports.Logger
	emitter ConnectionEmitter
}

// NewConnection creates a connection state machine in Disconnected.
func NewConnection(logger ports.Logger, emitter ConnectionEmitter) *Connection {
	return &Connection{
		state:   domain.ConnDisconnected,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current connection state.
func (c *Connection) State() domain.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// TransitionTo attempts to move to a new state.
// Returns an error wrapping domain.ErrInvalidTransition if it is not allowed.
func (c *Connection) TransitionTo(next domain.ConnectionState, reason string) error {
	c.mu.Lock()
	prev := c.state

	if !validTransition(prev, next) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
	}

	c.state = next
	c.mu.Unlock()

	// Emit event outside of lock
	if c.emitter != nil {
		c.emitter.OnConnectionChange(prev, next, reason)
	}

	c.logger.Info("connection state",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)

	return nil
}

// Reset returns the machine to Disconnected from any state.
func (c *Connection) Reset() {
	c.mu.Lock()
	c.state = domain.ConnDisconnected
	c.mu.Unlock()
}

func validTransition(from, to domain.ConnectionState) bool {
	switch from {
	case domain.ConnDisconnected:
		return to == domain.ConnConnecting
	case domain.ConnConnecting:
		return to == domain.ConnConnected || to == domain.ConnFailed
	case domain.ConnConnected:
		return to == domain.ConnConnecting
	default:
		return false
	}
}
