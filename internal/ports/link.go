package ports

// SerialLink is the point-to-point byte link between Source and Sink.
type SerialLink interface {
	// Write blocks until the whole buffer has been accepted by the hardware.
	Write(p []byte) error

	// Read returns whatever bytes are currently buffered without blocking.
	// An empty slice and nil error mean nothing was available. The result
	// may hold fewer or more bytes than one frame.
	Read() ([]byte, error)
}
