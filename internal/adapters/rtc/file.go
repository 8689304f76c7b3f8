// Package rtc implements ports.RTCStore on a hardware clock or a JSON file.
package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// DefaultFileName is the snapshot file used when the path is a directory.
const DefaultFileName = "rtc.json"

// snapshot is the on-disk format.
type snapshot struct {
	Local domain.LocalTime `json:"local"`

	// SetAt is the host time of the last Set; Get advances Local by the
	// time elapsed since.
	SetAt time.Time `json:"set_at"`
}

// FileStore is a software RTC persisted as JSON.
type FileStore struct {
	path  string
	clock clockwork.Clock
}

// NewFileStore creates a FileStore at path. A nil clock uses the real clock.
func NewFileStore(path string, clock clockwork.Clock) *FileStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FileStore{path: path, clock: clock}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored time advanced to now.
// Returns a zero LocalTime and nil error if nothing was stored yet.
func (s *FileStore) Get(ctx context.Context) (domain.LocalTime, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.LocalTime{}, nil
		}
		return domain.LocalTime{}, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.LocalTime{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if snap.Local.IsZero() {
		return domain.LocalTime{}, nil
	}

	elapsed := s.clock.Since(snap.SetAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return domain.LocalTimeFromTime(snap.Local.Time().Add(elapsed.Truncate(time.Second))), nil
}

// Set persists t atomically.
func (s *FileStore) Set(ctx context.Context, t domain.LocalTime) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot{Local: t, SetAt: s.clock.Now()}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

var _ ports.RTCStore = (*FileStore)(nil)
