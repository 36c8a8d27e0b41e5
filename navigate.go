package navigator

import (
	"context"
	"errors"
	"strings"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/history"
)

// Navigate changes into location, switching backends when location
// belongs to another backend kind or server than the active one.
//
// The history entry is pushed when the navigation completes, together with
// the new current location, so overlapping navigations keep history and
// location in completion order. Arriving at the location the cursor already
// points at does not push a duplicate. A failure after a backend switch
// restores the previous backend through RollbackToPreviousContext. On
// success the listing is refreshed; its failure is returned along with the
// location.
func (s *Session) Navigate(ctx context.Context, location string, opts ...NavigateOption) (string, error) {
	o := &navigateOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.join != "" {
		location = s.join(location, o.join)
	}
	location = strings.TrimSpace(location)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", s.fail(nil, data.ErrSessionClosed)
	}

	kind, ok := s.registry.Resolve(location)
	if !ok {
		s.restoreHistory(o)
		return "", s.normalizer.New(nerrors.KindNoFilesystemForLocation, map[string]string{
			"location": location,
		})
	}

	switched := false
	if s.needsSwitch(kind, location) {
		if err := s.switchBackend(ctx, kind, location, o.skipContextSave); err != nil {
			s.restoreHistory(o)
			return "", err
		}
		switched = true
	}

	resolved, err := withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (string, error) {
		s.log.Debug("Changing into '%s'", conn.Sanitize(location))
		return conn.Cd(ctx, location)
	})
	if err != nil {
		s.restoreHistory(o)
		if switched && !o.noRollback {
			if rbErr := s.RollbackToPreviousContext(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, data.ErrNoSavedContext) {
				s.log.Warn("Failed to restore previous backend: %v", rbErr)
			}
		}
		return "", err
	}

	if switched {
		s.discardSavedContext(ctx)
	}

	s.mu.Lock()
	var events []Event
	if resolved != s.current {
		s.previous = s.current
		s.current = resolved
		events = append(events, Event{
			Type:     EventLocationChanged,
			Location: resolved,
			Previous: s.previous,
		})
	}
	current, ok := s.history.Current()
	switch {
	case o.skipHistory:
		if ok && current == location {
			s.history.Replace(resolved)
		}
	case !ok || current != resolved:
		s.history.Push(resolved)
	}
	s.mu.Unlock()

	s.log.Info("Navigated to '%s'", resolved)
	s.events.publish(events...)

	if _, err := s.List(ctx, resolved, s.options.IncludeParent); err != nil {
		return resolved, err
	}
	return resolved, nil
}

// join appends segment to location using the active connection's rules.
func (s *Session) join(location, segment string) string {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active != nil {
		if kind, ok := s.registry.Resolve(location); ok && kind == active.kind {
			return active.conn.Join(location, segment)
		}
	}

	return data.JoinPath(location, segment)
}

// needsSwitch reports whether location requires another connection.
func (s *Session) needsSwitch(kind backend.Kind, location string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.kind != kind {
		return true
	}
	return s.active.conn.ServerPart(location) != s.active.server
}

// restoreHistory puts the cursor of a failed history move back.
func (s *Session) restoreHistory(o *navigateOptions) {
	if o.cursor == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Restore(*o.cursor)
}

// switchBackend attaches a fresh connection for location. The previous
// context is kept for RollbackToPreviousContext unless skipSave is set.
func (s *Session) switchBackend(ctx context.Context, kind backend.Kind, location string, skipSave bool) error {
	conn, err := s.registry.Instantiate(ctx, kind, location)
	if err != nil {
		return s.fail(nil, nerrors.WithField(nerrors.Wrap(err, nerrors.CodeNoFilesystem, "unable to attach backend '%s'", kind), "location", location))
	}
	s.subscribe(conn)

	next := &backendContext{
		kind:   kind,
		conn:   conn,
		server: conn.ServerPart(location),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.UnsubscribeAll()
		conn.Close(ctx)
		return s.fail(nil, data.ErrSessionClosed)
	}

	old := s.active
	var discard []*backendContext
	if old != nil {
		if skipSave {
			discard = append(discard, old)
		} else {
			if s.saved != nil {
				discard = append(discard, s.saved)
			}
			s.saved = old
		}
	}
	s.active = next
	s.mu.Unlock()

	if old != nil {
		old.conn.UnsubscribeAll()
	}
	for _, c := range discard {
		s.release(ctx, c)
	}

	s.log.Info("Switched to %s backend '%s'", kind, next.server)
	s.events.publish(Event{
		Type:   EventBackendChanged,
		Kind:   kind,
		Server: next.server,
	})

	return nil
}

// discardSavedContext commits a successful switch.
func (s *Session) discardSavedContext(ctx context.Context) {
	s.mu.Lock()
	saved := s.saved
	s.saved = nil
	s.mu.Unlock()

	if saved != nil {
		s.release(ctx, saved)
	}
}

// release closes a context that is no longer active or saved.
func (s *Session) release(ctx context.Context, c *backendContext) {
	c.conn.UnsubscribeAll()
	if err := c.conn.Close(ctx); err != nil {
		s.log.Warn("Failed to close %s backend '%s': %v", c.kind, c.server, err)
	}
}

// RollbackToPreviousContext restores the backend saved by the last switch
// and discards the failed one. When the restored connection is still
// connected the current history entry is navigated to again.
func (s *Session) RollbackToPreviousContext(ctx context.Context) error {
	s.mu.Lock()
	saved := s.saved
	if saved == nil {
		s.mu.Unlock()
		return s.fail(nil, data.ErrNoSavedContext)
	}

	failed := s.active
	s.active = saved
	s.saved = nil

	var pending *pendingLogin
	if s.pending != nil && failed != nil && s.pending.conn == failed.conn {
		pending = s.pending
		s.pending = nil
	}
	target, hasTarget := s.history.Current()
	s.mu.Unlock()

	if pending != nil {
		pending.abort()
	}
	if failed != nil {
		s.release(ctx, failed)
	}
	s.subscribe(saved.conn)

	s.log.Info("Restored %s backend '%s'", saved.kind, saved.server)
	s.events.publish(Event{
		Type:   EventBackendChanged,
		Kind:   saved.kind,
		Server: saved.server,
	})

	if !saved.conn.IsConnected() {
		s.setStatusFor(saved.conn, data.StatusOffline)
		return nil
	}

	if hasTarget {
		if _, err := s.Navigate(ctx, target, SkipHistory(), withoutRollback()); err != nil {
			return err
		}
	}

	s.setStatusFor(saved.conn, data.StatusOk)
	return nil
}

// Go moves through the history by delta and navigates to the target.
// Moves on an empty history or onto the current entry do nothing.
func (s *Session) Go(ctx context.Context, delta int) (string, error) {
	return s.move(ctx, delta, false)
}

func (s *Session) Back(ctx context.Context) (string, error) {
	return s.move(ctx, -1, false)
}

func (s *Session) Forward(ctx context.Context) (string, error) {
	return s.move(ctx, 1, false)
}

// Reload navigates to the current history entry again without touching
// the history, refreshing the listing.
func (s *Session) Reload(ctx context.Context) (string, error) {
	return s.move(ctx, 0, true)
}

func (s *Session) move(ctx context.Context, delta int, force bool) (string, error) {
	s.mu.Lock()
	cursor := s.history.Cursor()
	target, err := s.history.Move(delta, force)
	s.mu.Unlock()

	switch {
	case errors.Is(err, history.ErrEmpty):
		s.log.Warn("Ignoring history move by %d: history is empty", delta)
		return "", nil
	case errors.Is(err, history.ErrUnchanged):
		return target, nil
	}

	return s.Navigate(ctx, target, SkipHistory(), restoreCursor(cursor))
}
