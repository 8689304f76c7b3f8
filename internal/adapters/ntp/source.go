// Package ntp implements ports.TimeSource with an SNTP query.
package ntp

import (
	"context"
	"fmt"
	"math"
	"time"

	beevik "github.com/beevik/ntp"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// Defaults for the time server query.
const (
	DefaultServer  = "pool.ntp.org"
	DefaultTimeout = 5 * time.Second
)

type queryFunc func(host string, opt beevik.QueryOptions) (*beevik.Response, error)

// Source queries one NTP server per call.
type Source struct {
	server  string
	timeout time.Duration
	query   queryFunc
	logger  ports.Logger
}

// NewSource creates a Source for server.
func NewSource(server string, timeout time.Duration, logger ports.Logger) *Source {
	if server == "" {
		server = DefaultServer
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Source{
		server:  server,
		timeout: timeout,
		query:   beevik.QueryWithOptions,
		logger:  logger,
	}
}

// Now returns the server's current time in whole seconds.
func (s *Source) Now(ctx context.Context) (domain.EpochValue, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	resp, err := s.query(s.server, beevik.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, fmt.Errorf("%w: query %s: %v", domain.ErrTimeSourceFailure, s.server, err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrTimeSourceFailure, s.server, err)
	}

	s.logger.Debug("ntp response",
		ports.String("server", s.server),
		ports.Duration("rtt", resp.RTT),
		ports.Duration("offset", resp.ClockOffset),
		ports.Int("stratum", int(resp.Stratum)),
	)

	return toEpoch(resp.Time)
}

// toEpoch truncates t to seconds and checks it fits the frame.
func toEpoch(t time.Time) (domain.EpochValue, error) {
	secs := t.Unix()
	if secs <= 0 || secs > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d outside the 32-bit epoch range", domain.ErrTimeSourceFailure, secs)
	}
	return domain.EpochValue(secs), nil
}

var _ ports.TimeSource = (*Source)(nil)
