package ports

import (
	"context"

	"github.com/bft-labs/timelink/internal/domain"
)

// TimeSource obtains the current time from a network time authority.
type TimeSource interface {
	// Now returns the current epoch seconds or an error wrapping
	// domain.ErrTimeSourceFailure.
	Now(ctx context.Context) (domain.EpochValue, error)
}
