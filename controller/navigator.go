package controller

// Navigator is the embedding application's routing surface. The transport
// layer never navigates; controllers decide when a session is gone and ask
// the navigator to go to login, and where to go after a successful submit.
type Navigator interface {
	ToList(entityCode string)
	ToLogin()
}

// Confirmer is the blocking "are you sure" prompt. Destructive actions only
// proceed on a true answer.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmerFunc adapts a func to the Confirmer interface.
type ConfirmerFunc func(message string) bool

func (f ConfirmerFunc) Confirm(message string) bool {
	return f(message)
}

// State is a screen's fetch lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
