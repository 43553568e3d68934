package watchtower

// Phase is the lifecycle phase of a push channel.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConnectionState is a snapshot of one channel's lifecycle, exposed for the
// degraded-connectivity indicator and for tests.
type ConnectionState struct {
	Tenant    string
	Phase     Phase
	Attempt   int
	LastError ErrorClass
}
