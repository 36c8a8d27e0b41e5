package data

import (
	"errors"
	"sync"
)

// Standard errors shared by the session and its backends.
var (
	// Session errors
	ErrSessionClosed   = errors.New("navigator: session closed")
	ErrNoConnection    = errors.New("navigator: no active backend connection")
	ErrNoSavedContext  = errors.New("navigator: no saved backend context")
	ErrUnsupported     = errors.New("navigator: operation unsupported by backend")
	ErrNotLocal        = errors.New("navigator: operation requires a local backend")
	ErrNotConnected    = errors.New("navigator: backend not connected")
	ErrInvalidLocation = errors.New("navigator: invalid location")

	// Registry errors
	ErrMalformedAddress  = errors.New("navigator: malformed backend address")
	ErrUnknownBackend    = errors.New("navigator: unknown backend kind")
	ErrAlreadyRegistered = errors.New("navigator: backend kind already registered")
)

// Errors collects multiple errors, e.g. from a multi-entry delete.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

// First returns the first collected error or nil.
func (e *Errors) First() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return e.errors[0]
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
