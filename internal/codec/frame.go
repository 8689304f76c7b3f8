package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/bft-labs/timelink/internal/domain"
)

// FrameSize is the number of bytes in a raw time frame.
const FrameSize = 4

// Encode returns the big-endian encoding of epoch.
func Encode(epoch uint32) [FrameSize]byte {
	var b [FrameSize]byte
	binary.BigEndian.PutUint32(b[:], epoch)
	return b
}

// Decode reads a big-endian epoch from a buffer of exactly FrameSize bytes.
func Decode(buf []byte) (uint32, error) {
	if len(buf) != FrameSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", domain.ErrMalformedFrame, len(buf), FrameSize)
	}
	return binary.BigEndian.Uint32(buf), nil
}

// PayloadSpan scans buf from its last frame index toward the first for a
// zero byte and returns the index where the scan stopped. The scan never
// reaches index 0, so any buffer of at least FrameSize bytes yields a
// position of 1 or more. Shorter buffers are rejected with ErrInvalidPayload.
func PayloadSpan(buf []byte) (int, error) {
	if len(buf) < FrameSize {
		return 0, fmt.Errorf("%w: short buffer of %d bytes", domain.ErrInvalidPayload, len(buf))
	}
	i := FrameSize - 1
	for ; i > 0; i-- {
		if buf[i] == 0 {
			break
		}
	}
	if i == 0 {
		i = 1
	}
	return i, nil
}
