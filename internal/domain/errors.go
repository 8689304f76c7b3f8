package domain

import "errors"

// Domain errors represent error conditions in the timelink protocol.
// They are wrapped by adapters and can be checked with errors.Is.
var (
	// ErrNetworkUnavailable is returned when the Source cannot associate with
	// the network within the configured number of attempts.
	ErrNetworkUnavailable = errors.New("timelink: network unavailable")

	// ErrTimeSourceFailure is returned when the time authority fails or
	// returns a value outside the EpochValue range.
	ErrTimeSourceFailure = errors.New("timelink: time source failure")

	// ErrMalformedFrame is returned when a buffer does not have frame length.
	ErrMalformedFrame = errors.New("timelink: malformed frame")

	// ErrInvalidPayload is returned when a frame carries no usable epoch.
	ErrInvalidPayload = errors.New("timelink: invalid payload")

	// ErrTransport is returned when the link fails to read or write.
	ErrTransport = errors.New("timelink: transport error")

	// ErrReceiveTimeout is returned when a receive attempt exhausts its
	// retry budget or deadline without a frame.
	ErrReceiveTimeout = errors.New("timelink: receive timeout")

	// ErrInvalidTransition is returned for a state change the machine does not allow.
	ErrInvalidTransition = errors.New("timelink: invalid state transition")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("timelink: invalid configuration")
)
