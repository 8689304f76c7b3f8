package codec

import (
	"bytes"
	"fmt"

	"github.com/goblimey/go-crc24q/crc24q"

	"github.com/bft-labs/timelink/internal/domain"
)

const (
	// Preamble starts every checked frame.
	Preamble byte = 0xD3

	// CheckedFrameSize is preamble, length, payload and 3 CRC bytes.
	CheckedFrameSize = 2 + FrameSize + 3

	// maxPending bounds the bytes a Deframer keeps between reads.
	maxPending = 4 * CheckedFrameSize
)

// Checked is the preamble + length + payload + CRC-24Q format.
type Checked struct{}

// Name returns "checked".
func (Checked) Name() string { return FormatChecked }

// Marshal builds one checked frame carrying epoch.
func (Checked) Marshal(epoch domain.EpochValue) []byte {
	frame := make([]byte, 0, CheckedFrameSize)
	frame = append(frame, Preamble, FrameSize)
	payload := Encode(uint32(epoch))
	frame = append(frame, payload[:]...)
	crc := crc24q.Hash(frame)
	return append(frame, crc24q.HiByte(crc), crc24q.MiByte(crc), crc24q.LoByte(crc))
}

// NewUnmarshaler returns a Deframer.
func (Checked) NewUnmarshaler() Unmarshaler { return NewDeframer() }

// Deframer extracts checked frames from a byte stream whose reads do not
// line up with frame boundaries.
type Deframer struct {
	buf []byte
}

// NewDeframer creates an empty Deframer.
func NewDeframer() *Deframer {
	return &Deframer{buf: make([]byte, 0, maxPending)}
}

// Feed appends p to the pending bytes and returns the newest valid epoch
// among the frames it completes.
func (d *Deframer) Feed(p []byte) (domain.EpochValue, error) {
	d.buf = append(d.buf, p...)

	var (
		latest  domain.EpochValue
		found   bool
		lastErr error
	)
	for {
		i := bytes.IndexByte(d.buf, Preamble)
		if i < 0 {
			if len(d.buf) > 0 && !found {
				lastErr = fmt.Errorf("%w: no preamble in %d bytes", domain.ErrInvalidPayload, len(d.buf))
			}
			d.buf = d.buf[:0]
			break
		}
		d.buf = d.buf[i:]
		if len(d.buf) < CheckedFrameSize {
			break
		}

		candidate := d.buf[:CheckedFrameSize]
		if err := verify(candidate); err != nil {
			// Not a frame start; resynchronise on the next preamble.
			d.buf = d.buf[1:]
			lastErr = err
			continue
		}

		v, _ := Decode(candidate[2 : 2+FrameSize])
		d.buf = d.buf[CheckedFrameSize:]
		if v == 0 {
			lastErr = fmt.Errorf("%w: zero epoch", domain.ErrInvalidPayload)
			continue
		}
		latest, found = domain.EpochValue(v), true
	}

	if len(d.buf) > maxPending {
		d.buf = append(d.buf[:0], d.buf[len(d.buf)-maxPending:]...)
	}

	switch {
	case found:
		return latest, nil
	case lastErr != nil:
		return 0, lastErr
	default:
		return 0, ErrIncomplete
	}
}

// Pending returns the number of buffered bytes.
func (d *Deframer) Pending() int {
	return len(d.buf)
}

// Reset discards buffered bytes.
func (d *Deframer) Reset() {
	d.buf = d.buf[:0]
}

// verify checks the length byte and CRC of one candidate frame.
func verify(frame []byte) error {
	if frame[1] != FrameSize {
		return fmt.Errorf("%w: length byte %d", domain.ErrMalformedFrame, frame[1])
	}
	body := frame[:2+FrameSize]
	crc := crc24q.Hash(body)
	tail := frame[2+FrameSize:]
	if crc24q.HiByte(crc) != tail[0] || crc24q.MiByte(crc) != tail[1] || crc24q.LoByte(crc) != tail[2] {
		return fmt.Errorf("%w: crc mismatch", domain.ErrInvalidPayload)
	}
	return nil
}
