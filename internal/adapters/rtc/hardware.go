package rtc

import (
	"context"
	"fmt"
	"time"

	urtc "github.com/u-root/u-root/pkg/rtc"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// device is the subset of the u-root RTC used here.
type device interface {
	Read() (time.Time, error)
	Set(time.Time) error
}

// Hardware stores wall-clock fields in the kernel RTC. The fields are
// written as UTC so the chip holds local time as-is.
type Hardware struct {
	dev device
}

// OpenHardware opens the first available /dev/rtc device.
func OpenHardware() (*Hardware, error) {
	dev, err := urtc.OpenRTC()
	if err != nil {
		return nil, fmt.Errorf("open rtc: %w", err)
	}
	return &Hardware{dev: dev}, nil
}

// Get reads the chip.
func (h *Hardware) Get(ctx context.Context) (domain.LocalTime, error) {
	t, err := h.dev.Read()
	if err != nil {
		return domain.LocalTime{}, fmt.Errorf("read rtc: %w", err)
	}
	return domain.LocalTimeFromTime(t), nil
}

// Set writes t to the chip.
func (h *Hardware) Set(ctx context.Context, t domain.LocalTime) error {
	if err := h.dev.Set(t.Time()); err != nil {
		return fmt.Errorf("set rtc: %w", err)
	}
	return nil
}

var _ ports.RTCStore = (*Hardware)(nil)
