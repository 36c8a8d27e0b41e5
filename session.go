package navigator

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/history"
	"github.com/mwantia/navigator/log"
	"golang.org/x/sync/singleflight"
)

// backendContext is a connection together with the identity it was attached for.
type backendContext struct {
	kind   backend.Kind
	conn   backend.Connection
	server string
}

// Session is a single navigation session over exchangeable backends.
//
// All state is guarded by mu, which is never held across a backend call.
// Overlapping navigations are not queued; the one completing last wins.
type Session struct {
	id         string
	options    *SessionOptions
	registry   *backend.Registry
	normalizer *nerrors.Normalizer
	log        *log.Logger
	events     eventBus
	logins     singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	current   string
	previous  string
	active    *backendContext
	saved     *backendContext
	status    data.Status
	entries   []*data.Entry
	selection []*data.Entry
	history   *history.History
	pending   *pendingLogin
	waiters   int
	tempDir   string
	closed    bool
}

// New creates a blank session without any backend attached.
func New(opts ...SessionOption) (*Session, error) {
	options := newDefaultSessionOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to create session id: %w", err)
	}

	if options.Registry == nil {
		registry, err := NewRegistry(WithRegistryLogger(options.Logger))
		if err != nil {
			return nil, err
		}
		options.Registry = registry
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         id.String(),
		options:    options,
		registry:   options.Registry,
		normalizer: nerrors.NewNormalizer(options.Platform),
		log:        options.Logger.Named("navigator").Named(id.String()),
		ctx:        ctx,
		cancel:     cancel,
		status:     data.StatusBlank,
		history:    history.New(),
	}

	for _, handler := range options.Handlers {
		s.events.subscribe(handler)
	}

	return s, nil
}

// Open creates a session and navigates to location. The session is
// returned even when the initial navigation fails.
func Open(ctx context.Context, location string, opts ...SessionOption) (*Session, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}

	_, err = s.Navigate(ctx, location)
	return s, err
}

func (s *Session) ID() string {
	return s.id
}

// Normalizer returns the normalizer every failure of s passes through.
func (s *Session) Normalizer() *nerrors.Normalizer {
	return s.normalizer
}

// Subscribe registers handler for every future event and returns a
// function removing it again. Handlers run on the goroutine causing the
// change and must not block.
func (s *Session) Subscribe(handler func(Event)) func() {
	return s.events.subscribe(handler)
}

func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

func (s *Session) PreviousLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.previous
}

func (s *Session) Status() data.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Entries returns the last successful listing. The entries themselves are
// shared with the session so that Rename can update them in place.
func (s *Session) Entries() []*data.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.entries)
}

func (s *Session) History() history.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.Snapshot()
}

// Backend returns the kind and server identity of the active connection.
func (s *Session) Backend() (backend.Kind, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return "", "", false
	}
	return s.active.kind, s.active.server, true
}

// HasSavedContext reports whether a backend switch is still unresolved.
func (s *Session) HasSavedContext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saved != nil
}

func (s *Session) Capabilities() *backend.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return &backend.Capabilities{}
	}
	return s.active.conn.Capabilities()
}

// PendingLogin returns the server a login is waiting for.
func (s *Session) PendingLogin() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return "", false
	}
	return s.pending.server, true
}

// Close releases the active and saved connections, aborts a pending
// login and removes fetched files.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	contexts := []*backendContext{s.active, s.saved}
	pending := s.pending
	tempDir := s.tempDir

	s.active, s.saved, s.pending = nil, nil, nil
	s.entries, s.selection = nil, nil
	events := s.setStatusLocked(data.StatusBlank)
	s.mu.Unlock()

	s.cancel()
	if pending != nil {
		pending.abort()
	}

	var errs data.Errors
	for _, c := range contexts {
		if c == nil {
			continue
		}
		c.conn.UnsubscribeAll()
		errs.Add(c.conn.Close(ctx))
	}

	if tempDir != "" {
		errs.Add(os.RemoveAll(tempDir))
	}

	s.events.publish(events...)
	s.events.clear()

	s.log.Debug("Session closed")
	return errs.Errors()
}

func (s *Session) setStatusLocked(status data.Status) []Event {
	if s.status == status {
		return nil
	}

	s.status = status
	return []Event{{Type: EventStatusChanged, Status: status}}
}

// setStatusFor changes the status only while conn is the active connection.
func (s *Session) setStatusFor(conn backend.Connection, status data.Status) {
	s.mu.Lock()
	var events []Event
	if s.active != nil && s.active.conn == conn {
		events = s.setStatusLocked(status)
	}
	s.mu.Unlock()

	s.events.publish(events...)
}

// settle ends an operation on conn. A disconnect reported meanwhile keeps
// the session offline and an outstanding login keeps it waiting.
func (s *Session) settle(conn backend.Connection) {
	s.mu.Lock()
	var events []Event
	if s.active != nil && s.active.conn == conn {
		switch {
		case s.status == data.StatusOffline:
		case s.pending != nil && s.pending.conn == conn:
			events = s.setStatusLocked(data.StatusAwaitingLogin)
		default:
			events = s.setStatusLocked(data.StatusOk)
		}
	}
	s.mu.Unlock()

	s.events.publish(events...)
}

// fail normalizes err and settles the status.
func (s *Session) fail(conn backend.Connection, err error) *nerrors.Error {
	ne := s.normalizer.Normalize(err)
	if conn != nil {
		s.settle(conn)
	}

	s.log.Debug("Operation failed: %v", ne)
	return ne
}

func (s *Session) subscribe(conn backend.Connection) {
	conn.OnClosed(func(err error) {
		s.onClosed(conn, err)
	})
}

// onClosed moves the session offline when the active connection drops.
func (s *Session) onClosed(conn backend.Connection, err error) {
	s.mu.Lock()
	if s.closed || s.active == nil || s.active.conn != conn {
		s.mu.Unlock()
		return
	}
	server := s.active.server
	events := s.setStatusLocked(data.StatusOffline)
	s.mu.Unlock()

	s.log.Warn("Connection to '%s' closed: %v", server, err)
	s.events.publish(events...)
}

// connection returns the active connection.
func (s *Session) connection() (backend.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, data.ErrSessionClosed
	}
	if s.active == nil {
		return nil, data.ErrNoConnection
	}
	return s.active.conn, nil
}

// withConnection runs fn against the active connection: connectivity is
// ensured first, the status is busy while fn runs and a failure is
// normalized exactly once. The result of fn is returned even on failure.
func withConnection[T any](ctx context.Context, s *Session, fn func(ctx context.Context, conn backend.Connection) (T, error)) (T, error) {
	var zero T

	conn, err := s.connection()
	if err != nil {
		return zero, s.fail(nil, err)
	}

	if err := s.ensureConnected(ctx, conn); err != nil {
		return zero, s.fail(conn, err)
	}

	s.setStatusFor(conn, data.StatusBusy)

	result, err := fn(ctx, conn)
	if err != nil {
		return result, s.fail(conn, err)
	}

	s.settle(conn)
	return result, nil
}

// requireCapability fails when conn cannot perform capability.
func requireCapability(conn backend.Connection, capability backend.CapabilityType) error {
	caps := conn.Capabilities()
	if caps.Has(capability) {
		return nil
	}

	if caps.Settings.IsReadonly {
		return nerrors.WithField(nerrors.Code(nerrors.CodeReadOnly, "backend is readonly"), "capability", string(capability))
	}
	return nerrors.WithField(nerrors.Wrap(data.ErrUnsupported, nerrors.CodeUnsupported, "unsupported operation"), "capability", string(capability))
}
