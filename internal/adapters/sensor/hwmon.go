// Package sensor reads environment readings from Linux sysfs.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/timelink/internal/ports"
)

// channel is one reading and the attribute files that may provide it.
type channel struct {
	label  string
	files  []string
	scale  float64
	format string
}

// channels in display order. hwmon and IIO (bme280 and friends) names are
// both accepted; the first file present wins.
var channels = []channel{
	{label: "temp", files: []string{"temp1_input", "in_temp_input"}, scale: 0.001, format: "%.1fC"},
	{label: "pressure", files: []string{"in_pressure_input"}, scale: 10, format: "%.0fhPa"},
	{label: "humidity", files: []string{"humidity1_input", "in_humidityrelative_input"}, scale: 0.001, format: "%.0f%%"},
}

// Hwmon reads a sysfs sensor device directory.
type Hwmon struct {
	dir string
}

// NewHwmon creates a reader for dir.
func NewHwmon(dir string) (*Hwmon, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("sensor: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("sensor: %s is not a directory", dir)
	}
	return &Hwmon{dir: dir}, nil
}

// Read returns every reading the device provides. Missing channels are
// skipped; a device with none is an error.
func (h *Hwmon) Read(ctx context.Context) ([]ports.Reading, error) {
	var (
		out  []ports.Reading
		errs []error
	)
	for _, ch := range channels {
		v, ok, err := h.readChannel(ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, ports.Reading{Label: ch.label, Value: fmt.Sprintf(ch.format, v*ch.scale)})
	}
	if len(out) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, fmt.Errorf("sensor: no readable channels in %s", h.dir)
	}
	return out, nil
}

func (h *Hwmon) readChannel(ch channel) (float64, bool, error) {
	for _, name := range ch.files {
		data, err := os.ReadFile(filepath.Join(h.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", name, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", name, err)
		}
		return v, true, nil
	}
	return 0, false, nil
}

var _ ports.Sensor = (*Hwmon)(nil)
