package configwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logadapter "github.com/bft-labs/timelink/internal/adapters/log"
	"github.com/bft-labs/timelink/internal/cliconfig"
	"github.com/bft-labs/timelink/internal/domain"
)

func intPtr(i int) *int { return &i }

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		fc           cliconfig.FileConfig
		pinned       map[string]bool
		wantOffset   int
		wantInterval time.Duration
		wantErr      bool
	}{
		{
			name:         "applies offset and interval",
			fc:           cliconfig.FileConfig{TimezoneOffset: intPtr(-3), SendInterval: "30s"},
			wantOffset:   -3,
			wantInterval: 30 * time.Second,
		},
		{
			name:         "empty file keeps current",
			fc:           cliconfig.FileConfig{},
			wantOffset:   1,
			wantInterval: time.Minute,
		},
		{
			name:         "pinned flags win",
			fc:           cliconfig.FileConfig{TimezoneOffset: intPtr(5), SendInterval: "5s"},
			pinned:       map[string]bool{"timezone-offset": true, "send-interval": true},
			wantOffset:   1,
			wantInterval: time.Minute,
		},
		{
			name:         "offset out of range rejects everything",
			fc:           cliconfig.FileConfig{TimezoneOffset: intPtr(20), SendInterval: "5s"},
			wantOffset:   1,
			wantInterval: time.Minute,
			wantErr:      true,
		},
		{
			name:         "bad interval rejects everything",
			fc:           cliconfig.FileConfig{TimezoneOffset: intPtr(2), SendInterval: "-5s"},
			wantOffset:   1,
			wantInterval: time.Minute,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := domain.NewSynchronizationContext(1, time.Minute)

			err := Apply(sc, tt.fc, tt.pinned, logadapter.NewNoopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
			if got := sc.OffsetHours(); got != tt.wantOffset {
				t.Errorf("OffsetHours = %d, want %d", got, tt.wantOffset)
			}
			if got := sc.SendInterval(); got != tt.wantInterval {
				t.Errorf("SendInterval = %v, want %v", got, tt.wantInterval)
			}
		})
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_FsnotifyDetectsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("timezone_offset = 0\n"), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	sc := domain.NewSynchronizationContext(0, time.Minute)
	w := New(path, sc, nil, logadapter.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("timezone_offset = 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("timezone_offset = 2\nsend_interval = \"20s\"\n"), 0644); err != nil {
		t.Fatalf("Failed to modify config file: %v", err)
	}

	waitFor(t, func() bool { return sc.OffsetHours() == 2 })
	if sc.SendInterval() != 20*time.Second {
		t.Errorf("SendInterval = %v, want 20s", sc.SendInterval())
	}

	// An invalid edit keeps the last good settings.
	if err := os.WriteFile(path, []byte("timezone_offset = = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if sc.OffsetHours() != 2 {
		t.Errorf("OffsetHours = %d after invalid edit, want 2", sc.OffsetHours())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if w.Reloads() < 1 {
		t.Errorf("Reloads() = %d, want >= 1", w.Reloads())
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	sc := domain.NewSynchronizationContext(0, time.Minute)
	w := New(filepath.Join(t.TempDir(), "absent", "config.toml"), sc, nil, logadapter.NewNoopLogger())

	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() on a missing directory should fail")
	}
}
