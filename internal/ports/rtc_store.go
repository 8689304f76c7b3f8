package ports

import (
	"context"

	"github.com/bft-labs/timelink/internal/domain"
)

// RTCStore persists the Sink's real-time clock fields.
// Implementations hold exactly one snapshot; Set replaces it.
type RTCStore interface {
	// Set writes all fields of t. A failure part-way may leave a partial update.
	Set(ctx context.Context, t domain.LocalTime) error

	// Get returns the current snapshot.
	Get(ctx context.Context) (domain.LocalTime, error)
}
