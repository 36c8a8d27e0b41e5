package navigator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
)

// pendingLogin is the single outstanding request for credentials.
type pendingLogin struct {
	conn   backend.Connection
	server string

	creds  chan *backend.Credentials
	result chan error

	once sync.Once
	done chan struct{}
}

func newPendingLogin(conn backend.Connection, server string) *pendingLogin {
	return &pendingLogin{
		conn:   conn,
		server: server,
		creds:  make(chan *backend.Credentials),
		result: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// abort releases everyone waiting on p without a login attempt.
func (p *pendingLogin) abort() {
	p.once.Do(func() {
		close(p.done)
	})
}

// ensureConnected runs the login sub-flow for conn when it is not
// connected. Concurrent callers share a single login; each caller may
// stop waiting through its own ctx without cancelling the login.
func (s *Session) ensureConnected(ctx context.Context, conn backend.Connection) error {
	if conn.IsConnected() {
		return nil
	}

	key := fmt.Sprintf("%p", conn)
	ch := s.logins.DoChan(key, func() (any, error) {
		return nil, s.login(conn)
	})

	s.mu.Lock()
	s.waiters++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.waiters--
		s.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// login authenticates conn with stored credentials, or suspends until
// Login supplies them or the session is closed.
func (s *Session) login(conn backend.Connection) error {
	opts := conn.LoginOptions()
	if opts.HasStoredCredentials() {
		s.setStatusFor(conn, data.StatusBusy)
		s.log.Debug("Logging in to '%s' with stored credentials", opts.Server)

		return conn.Login(s.ctx, opts.Server, opts.Credentials)
	}

	p := newPendingLogin(conn, opts.Server)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return data.ErrSessionClosed
	}
	if s.pending != nil {
		s.pending.abort()
	}
	s.pending = p

	var events []Event
	if s.active != nil && s.active.conn == conn {
		events = s.setStatusLocked(data.StatusAwaitingLogin)
	}
	events = append(events, Event{
		Type:   EventLoginRequired,
		Kind:   conn.Kind(),
		Server: opts.Server,
	})
	s.mu.Unlock()

	s.log.Info("Waiting for credentials for '%s'", opts.Server)
	s.events.publish(events...)

	defer func() {
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
		}
		s.mu.Unlock()
	}()

	select {
	case creds := <-p.creds:
		s.setStatusFor(conn, data.StatusBusy)

		err := conn.Login(s.ctx, opts.Server, creds)
		p.result <- err
		if err != nil {
			s.log.Warn("Login to '%s' failed: %v", opts.Server, err)
		}
		return err

	case <-p.done:
		return data.ErrNotConnected

	case <-s.ctx.Done():
		return data.ErrSessionClosed
	}
}

// Login answers the pending login with creds and returns its outcome,
// which is shared with every operation waiting for it. Without a pending
// login the active connection is logged in directly.
func (s *Session) Login(ctx context.Context, creds *backend.Credentials) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.fail(nil, data.ErrSessionClosed)
	}

	p := s.pending
	s.pending = nil

	var conn backend.Connection
	if s.active != nil {
		conn = s.active.conn
	}
	s.mu.Unlock()

	if p == nil {
		if conn == nil {
			return s.fail(nil, data.ErrNoConnection)
		}

		s.setStatusFor(conn, data.StatusBusy)
		if err := conn.Login(ctx, conn.LoginOptions().Server, creds); err != nil {
			return s.fail(conn, err)
		}

		s.settle(conn)
		return nil
	}

	select {
	case p.creds <- creds:
	case <-p.done:
		return s.fail(nil, data.ErrNotConnected)
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == nil && !s.closed {
			s.pending = p
		}
		s.mu.Unlock()
		return s.fail(nil, ctx.Err())
	}

	// result is buffered, the login goroutine never blocks on it
	select {
	case err := <-p.result:
		if err != nil {
			return s.fail(p.conn, err)
		}
		return nil
	case <-ctx.Done():
		return s.fail(nil, ctx.Err())
	}
}
