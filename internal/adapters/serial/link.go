// Package serial implements ports.SerialLink over a UART device.
package serial

import (
	"fmt"
	"io"
	"time"

	bugst "go.bug.st/serial"

	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// DefaultBaudRate is the link speed used on both ends.
const DefaultBaudRate = 9600

// readBufferSize bounds the bytes returned by one Read.
const readBufferSize = 64

// Config holds the device settings. Framing is always 8N1.
type Config struct {
	Device   string
	BaudRate int

	// ReadTimeout is how long Read waits for data. Zero polls without blocking.
	ReadTimeout time.Duration
}

// Link is a SerialLink over a byte stream.
type Link struct {
	rw  io.ReadWriter
	buf []byte
}

// NewLink wraps an already opened stream.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{rw: rw, buf: make([]byte, readBufferSize)}
}

// Port is a Link that owns its serial device.
type Port struct {
	*Link
	port bugst.Port
	name string
}

// Open opens the device in 8N1 mode.
func Open(cfg Config) (*Port, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Device, err)
	}

	return &Port{Link: NewLink(port), port: port, name: cfg.Device}, nil
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

// Close closes the device.
func (p *Port) Close() error {
	return p.port.Close()
}

// Write writes all of b, looping over short writes.
func (l *Link) Write(b []byte) error {
	for len(b) > 0 {
		n, err := l.rw.Write(b)
		if err != nil {
			return fmt.Errorf("%w: write: %v", domain.ErrTransport, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: write accepted no bytes", domain.ErrTransport)
		}
		b = b[n:]
	}
	return nil
}

// Read returns the bytes available now, or nil when there are none.
func (l *Link) Read() ([]byte, error) {
	n, err := l.rw.Read(l.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, l.buf[:n])
		return out, nil
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read: %v", domain.ErrTransport, err)
	}
	return nil, nil
}

// ListPorts returns the serial devices present on this host.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

var _ ports.SerialLink = (*Link)(nil)
