package navigator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// List reads location and replaces the session entries, clearing the
// selection. A failed listing leaves the entries untouched.
func (s *Session) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	entries, err := withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) ([]*data.Entry, error) {
		return conn.List(ctx, location, includeParent)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	hadSelection := len(s.selection) > 0
	s.entries = entries
	s.selection = nil
	s.mu.Unlock()

	events := []Event{{
		Type:     EventEntriesReplaced,
		Location: location,
		Entries:  slices.Clone(entries),
	}}
	if hadSelection {
		events = append(events, Event{Type: EventSelectionChanged})
	}
	s.events.publish(events...)

	return entries, nil
}

// Rename renames entry below dir and updates its name in place. The
// listing is not refreshed.
//
// The name is written under the session lock. Entries handed out by
// Entries or EventEntriesReplaced must not be read concurrently with a
// Rename of the same entry; front ends on another goroutine keep a copy
// and apply EventEntryRenamed.NewName to it.
func (s *Session) Rename(ctx context.Context, dir string, entry *data.Entry, newName string) (string, error) {
	if entry == nil {
		return "", s.fail(nil, nerrors.Code(nerrors.CodeNotExist, "no entry given"))
	}

	s.mu.Lock()
	oldName := entry.Name
	s.mu.Unlock()

	_, err := withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (struct{}, error) {
		if err := requireCapability(conn, backend.CapabilityRename); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, conn.Rename(ctx, dir, oldName, newName)
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	entry.Name = newName
	s.mu.Unlock()

	s.log.Debug("Renamed '%s' to '%s'", oldName, newName)
	s.events.publish(Event{
		Type:    EventEntryRenamed,
		Entry:   entry,
		OldName: oldName,
		NewName: newName,
	})

	return newName, nil
}

func (s *Session) MakeDirectory(ctx context.Context, parent, name string) error {
	_, err := withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (struct{}, error) {
		if err := requireCapability(conn, backend.CapabilityMakeDir); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, conn.MakeDir(ctx, parent, name)
	})
	return err
}

// Delete removes entries below dir and returns how many were removed,
// also when some of them failed.
func (s *Session) Delete(ctx context.Context, dir string, entries []*data.Entry) (int, error) {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Type == data.FileTypeParent {
			continue
		}
		names = append(names, entry.Name)
	}

	if len(names) == 0 {
		return 0, nil
	}

	return withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (int, error) {
		if err := requireCapability(conn, backend.CapabilityDelete); err != nil {
			return 0, err
		}
		return conn.Delete(ctx, dir, names)
	})
}

func (s *Session) Exists(ctx context.Context, location string) (bool, error) {
	return withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (bool, error) {
		return conn.Exists(ctx, location)
	})
}

// MeasureSize returns the accumulated size of names below dir.
func (s *Session) MeasureSize(ctx context.Context, dir string, names []string) (int64, error) {
	return withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (int64, error) {
		if err := requireCapability(conn, backend.CapabilityMeasureSize); err != nil {
			return 0, err
		}
		return conn.Size(ctx, dir, names)
	})
}

// FetchToLocalTemp downloads name below dir into the session temp
// directory and returns the local path. The file is removed on Close.
func (s *Session) FetchToLocalTemp(ctx context.Context, dir, name string) (string, error) {
	return withConnection(ctx, s, func(ctx context.Context, conn backend.Connection) (string, error) {
		if err := requireCapability(conn, backend.CapabilityFetch); err != nil {
			return "", err
		}

		tempDir, err := s.ensureTempDir()
		if err != nil {
			return "", err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}

		target := filepath.Join(tempDir, id.String())
		if err := os.Mkdir(target, 0o700); err != nil {
			return "", nerrors.FromSystem(err)
		}

		local := filepath.Join(target, filepath.Base(name))
		f, err := os.Create(local)
		if err != nil {
			return "", nerrors.FromSystem(err)
		}

		err = conn.Get(ctx, conn.Join(dir, name), f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.RemoveAll(target)
			return "", nerrors.WithField(nerrors.FromSystem(err), "filename", name)
		}

		s.log.Debug("Fetched '%s' to '%s'", name, local)
		return local, nil
	})
}

func (s *Session) ensureTempDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tempDir != "" {
		return s.tempDir, nil
	}

	dir, err := os.MkdirTemp(s.options.TempDir, fmt.Sprintf("navigator-%s-", s.id))
	if err != nil {
		return "", nerrors.FromSystem(err)
	}

	s.tempDir = dir
	return dir, nil
}

// OpenEntry navigates into traversable entries. Anything else is opened
// with the default handler of the operating system, after fetching it to
// a local file when the active backend is not local.
func (s *Session) OpenEntry(ctx context.Context, entry *data.Entry) (string, error) {
	if entry == nil {
		return "", s.fail(nil, nerrors.Code(nerrors.CodeNotExist, "no entry given"))
	}

	conn, err := s.connection()
	if err != nil {
		return "", s.fail(nil, err)
	}

	if entry.Type == data.FileTypeParent {
		return s.Navigate(ctx, entry.Dir, WithJoin(data.ParentName))
	}
	if conn.IsDir(entry) {
		return s.Navigate(ctx, entry.Path())
	}

	local := entry.Path()
	if conn.Kind() != backend.KindLocal {
		if local, err = s.FetchToLocalTemp(ctx, entry.Dir, entry.Name); err != nil {
			return "", err
		}
	}

	s.launch("open", local, func(opener Opener) error {
		return opener.Open(local)
	})
	return local, nil
}

// OpenTerminal opens a terminal in dir. Only local backends support it.
func (s *Session) OpenTerminal(dir string) error {
	conn, err := s.connection()
	if err != nil {
		return s.fail(nil, err)
	}

	if conn.Kind() != backend.KindLocal || !conn.Capabilities().Has(backend.CapabilityTerminal) {
		return s.fail(nil, nerrors.WithField(nerrors.Wrap(data.ErrNotLocal, nerrors.CodeUnsupported, "terminal unavailable"), "kind", string(conn.Kind())))
	}

	s.launch("terminal", dir, func(opener Opener) error {
		return opener.Terminal(dir)
	})
	return nil
}

// launch runs an OS action without waiting for it.
func (s *Session) launch(action, path string, fn func(Opener) error) {
	opener := s.options.Opener
	if opener == nil {
		s.log.Warn("No opener configured, ignoring %s of '%s'", action, path)
		return
	}

	go func() {
		if err := fn(opener); err != nil {
			s.log.Error("Failed to %s '%s': %v", action, path, err)
		}
	}()
}

// Select adds entries of the current listing to the selection. Entries
// that are not part of the listing are ignored.
func (s *Session) Select(entries ...*data.Entry) {
	s.mu.Lock()
	changed := false
	for _, entry := range entries {
		if !slices.Contains(s.entries, entry) || slices.Contains(s.selection, entry) {
			continue
		}
		s.selection = append(s.selection, entry)
		changed = true
	}
	selection := slices.Clone(s.selection)
	s.mu.Unlock()

	if changed {
		s.events.publish(Event{Type: EventSelectionChanged, Selection: selection})
	}
}

func (s *Session) Deselect(entries ...*data.Entry) {
	s.mu.Lock()
	n := len(s.selection)
	s.selection = slices.DeleteFunc(s.selection, func(e *data.Entry) bool {
		return slices.Contains(entries, e)
	})
	changed := len(s.selection) != n
	selection := slices.Clone(s.selection)
	s.mu.Unlock()

	if changed {
		s.events.publish(Event{Type: EventSelectionChanged, Selection: selection})
	}
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	changed := len(s.selection) > 0
	s.selection = nil
	s.mu.Unlock()

	if changed {
		s.events.publish(Event{Type: EventSelectionChanged})
	}
}

func (s *Session) Selection() []*data.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.selection)
}
