package ports

import "context"

// Network manages the Source's association with its network.
type Network interface {
	// Associate starts association. It does not wait for readiness.
	Associate(ctx context.Context) error

	// Connected reports whether the network is ready for use.
	Connected() bool

	// Disable turns the interface off. No association is attempted afterwards.
	Disable() error
}
