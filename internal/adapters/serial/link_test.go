package serial

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/timelink/internal/domain"
)

// chunkWriter accepts at most max bytes per call.
type chunkWriter struct {
	bytes.Buffer
	max   int
	calls int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.calls++
	if len(p) > w.max {
		p = p[:w.max]
	}
	return w.Buffer.Write(p)
}

func TestLink_WriteLoopsOverShortWrites(t *testing.T) {
	w := &chunkWriter{max: 3}
	link := NewLink(w)

	require.NoError(t, link.Write([]byte{0xD3, 0x04, 0x65, 0x53, 0xf1, 0x00, 0x01, 0x02, 0x03}))
	assert.Equal(t, 3, w.calls)
	assert.Equal(t, []byte{0xD3, 0x04, 0x65, 0x53, 0xf1, 0x00, 0x01, 0x02, 0x03}, w.Bytes())
}

type failingStream struct{ err error }

func (f failingStream) Read(p []byte) (int, error)  { return 0, f.err }
func (f failingStream) Write(p []byte) (int, error) { return 0, f.err }

func TestLink_ErrorsAreTransport(t *testing.T) {
	link := NewLink(failingStream{err: errors.New("device unplugged")})

	assert.ErrorIs(t, link.Write([]byte{1}), domain.ErrTransport)

	_, err := link.Read()
	assert.ErrorIs(t, err, domain.ErrTransport)
}

type stalledWriter struct{ bytes.Buffer }

func (stalledWriter) Write(p []byte) (int, error) { return 0, nil }

func TestLink_WriteStalled(t *testing.T) {
	link := NewLink(&stalledWriter{})
	assert.ErrorIs(t, link.Write([]byte{1, 2, 3, 4}), domain.ErrTransport)
}

func TestLink_ReadReturnsAvailableBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x65, 0x53, 0xf1, 0x00})
	link := NewLink(&buf)

	got, err := link.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x65, 0x53, 0xf1, 0x00}, got)

	// Drained: a poll with nothing pending is empty, not an error.
	got, err = link.Read()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLink_ReadCopiesOutOfBuffer(t *testing.T) {
	r := io.MultiReader(bytes.NewReader([]byte{1, 2}), bytes.NewReader([]byte{3, 4}))
	link := NewLink(struct {
		io.Reader
		io.Writer
	}{r, io.Discard})

	first, err := link.Read()
	require.NoError(t, err)
	second, err := link.Read()
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 2}, first)
	assert.Equal(t, []byte{3, 4}, second)
}
