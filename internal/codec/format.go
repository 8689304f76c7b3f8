package codec

import (
	"errors"
	"fmt"

	"github.com/bft-labs/timelink/internal/domain"
)

// Format names accepted by ParseFormat.
const (
	FormatRaw     = "raw"
	FormatChecked = "checked"
)

// ErrIncomplete is returned by an Unmarshaler that has buffered part of a
// frame and needs more bytes.
var ErrIncomplete = errors.New("codec: incomplete frame")

// Format produces frames for the Source and unmarshalers for the Sink.
type Format interface {
	Name() string
	Marshal(epoch domain.EpochValue) []byte
	NewUnmarshaler() Unmarshaler
}

// Unmarshaler turns the bytes returned by one link read into an epoch.
type Unmarshaler interface {
	// Feed consumes buf and returns the newest valid epoch it completes.
	// Errors wrap domain.ErrMalformedFrame or domain.ErrInvalidPayload, or
	// are ErrIncomplete when more bytes are needed.
	Feed(buf []byte) (domain.EpochValue, error)

	// Reset discards any buffered bytes.
	Reset()
}

// ParseFormat returns the Format with the given name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", FormatRaw:
		return Raw{}, nil
	case FormatChecked:
		return Checked{}, nil
	default:
		return nil, fmt.Errorf("unknown frame format %q (want %s or %s)", name, FormatRaw, FormatChecked)
	}
}

// Raw is the bare 4-byte big-endian format.
type Raw struct{}

// Name returns "raw".
func (Raw) Name() string { return FormatRaw }

// Marshal encodes epoch as 4 big-endian bytes.
func (Raw) Marshal(epoch domain.EpochValue) []byte {
	b := Encode(uint32(epoch))
	return b[:]
}

// NewUnmarshaler returns a stateless raw unmarshaler.
func (Raw) NewUnmarshaler() Unmarshaler { return rawUnmarshaler{} }

// rawUnmarshaler treats each read as exactly one frame.
type rawUnmarshaler struct{}

func (rawUnmarshaler) Feed(buf []byte) (domain.EpochValue, error) {
	if _, err := PayloadSpan(buf); err != nil {
		return 0, err
	}
	v, err := Decode(buf)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("%w: zero epoch", domain.ErrInvalidPayload)
	}
	return domain.EpochValue(v), nil
}

func (rawUnmarshaler) Reset() {}
