package domain

// TransferState is the indicator state of the Sink for one synchronization attempt.
type TransferState int

const (
	TransferIdle TransferState = iota
	TransferReceiving
	TransferError
)

// String returns a human-readable representation of the state.
func (s TransferState) String() string {
	switch s {
	case TransferIdle:
		return "Idle"
	case TransferReceiving:
		return "Receiving"
	case TransferError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ReceiverPhase is the step the Sink's receive state machine is in.
type ReceiverPhase int

const (
	PhaseWaitingForFrame ReceiverPhase = iota
	PhaseValidating
	PhaseApplying
	PhaseError
)

// String returns a human-readable representation of the phase.
func (p ReceiverPhase) String() string {
	switch p {
	case PhaseWaitingForFrame:
		return "WaitingForFrame"
	case PhaseValidating:
		return "Validating"
	case PhaseApplying:
		return "Applying"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ConnectionState is the network association state of the Source.
type ConnectionState int

const (
	ConnDisconnected ConnectionState = iota
	ConnConnecting
	ConnConnected
	ConnFailed
)

// String returns a human-readable representation of the state.
func (s ConnectionState) String() string {
	switch s {
	case ConnDisconnected:
		return "Disconnected"
	case ConnConnecting:
		return "Connecting"
	case ConnConnected:
		return "Connected"
	case ConnFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
