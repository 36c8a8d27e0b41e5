package data

// Status is the connection state of a session.
type Status int

const (
	// StatusBlank is the state before any backend has been attached.
	StatusBlank Status = iota
	// StatusBusy is set while a backend operation is in flight.
	StatusBusy
	// StatusOk is the idle, connected state.
	StatusOk
	// StatusAwaitingLogin is set while the session waits for credentials.
	StatusAwaitingLogin
	// StatusOffline is set after the active connection reported a disconnect.
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusBlank:
		return "blank"
	case StatusBusy:
		return "busy"
	case StatusOk:
		return "ok"
	case StatusAwaitingLogin:
		return "awaiting-login"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}
