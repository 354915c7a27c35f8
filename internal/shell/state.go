package shell

// State is the bootstrapper's lifecycle position. It only moves forward.
type State int

const (
	StateUninitialized State = iota
	StateBuilt
	StateWindowCreated
	StateStyled
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilt:
		return "built"
	case StateWindowCreated:
		return "window-created"
	case StateStyled:
		return "styled"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
