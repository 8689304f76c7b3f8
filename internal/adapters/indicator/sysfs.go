// Package indicator implements ports.SignalWriter for the status light.
package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bft-labs/timelink/internal/ports"
)

// DefaultLEDRoot is where the kernel exposes LED class devices.
const DefaultLEDRoot = "/sys/class/leds"

// Channels splits a packed GRB word into its red, green and blue parts.
func Channels(word uint32) (r, g, b uint8) {
	return uint8(word >> 8), uint8(word >> 16), uint8(word)
}

// Sysfs drives a multicolor LED class device. The device's multi_index is
// expected to be "red green blue".
type Sysfs struct {
	dir string
}

// NewSysfs returns a writer for the LED named name under root.
func NewSysfs(root, name string) (*Sysfs, error) {
	if root == "" {
		root = DefaultLEDRoot
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(filepath.Join(dir, "multi_intensity")); err != nil {
		return nil, fmt.Errorf("led %s: %w", name, err)
	}
	return &Sysfs{dir: dir}, nil
}

// WriteColor sets the channel intensities, then switches the LED on or off.
func (s *Sysfs) WriteColor(word uint32) error {
	r, g, b := Channels(word)
	intensity := fmt.Sprintf("%d %d %d\n", r, g, b)
	if err := s.write("multi_intensity", intensity); err != nil {
		return err
	}

	brightness := 0
	if word != 0 {
		brightness = 255
	}
	return s.write("brightness", strconv.Itoa(brightness)+"\n")
}

func (s *Sysfs) write(attr, value string) error {
	path := filepath.Join(s.dir, attr)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ ports.SignalWriter = (*Sysfs)(nil)
