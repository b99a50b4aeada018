package realtime

// ConnectionState tracks the lifecycle of the push channel. It is owned by
// the Client; everything else reads it through State() or a state hook.
type ConnectionState string

// Predefined ConnectionState values
const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateFailed       ConnectionState = "failed"
)

// String returns the string representation of the ConnectionState
func (s ConnectionState) String() string {
	return string(s)
}

// IsConnected reports whether events are currently flowing
func (s ConnectionState) IsConnected() bool {
	return s == StateConnected
}
