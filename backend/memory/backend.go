package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// Stores hands out named stores so that connections to the same
// mem://name share one tree.
type Stores struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewStores() *Stores {
	return &Stores{
		stores: make(map[string]*Store),
	}
}

// Get returns the store called name, creating it on first use.
func (s *Stores) Get(name string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, exists := s.stores[name]
	if !exists {
		store = NewStore()
		s.stores[name] = store
	}

	return store
}

// Set installs a prepared store under name.
func (s *Stores) Set(name string, store *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stores[name] = store
}

// MemoryBackend is a connection to a named in-memory store.
type MemoryBackend struct {
	backend.Notifier
	backend.URLPaths

	mu        sync.RWMutex
	addr      *backend.Address
	store     *Store
	connected bool
	creds     *backend.Credentials
	readonly  bool
}

func NewMemoryBackend(location string, store *Store) (*MemoryBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	return &MemoryBackend{
		addr:     addr,
		store:    store,
		readonly: addr.Bool("readonly"),
	}, nil
}

// Factory returns a registry factory resolving stores through stores.
func Factory(stores *Stores) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		addr, err := backend.ParseAddress(location)
		if err != nil {
			return nil, err
		}

		return NewMemoryBackend(location, stores.Get(addr.Host))
	}
}

func (*MemoryBackend) Kind() backend.Kind {
	return backend.KindMemory
}

func (mb *MemoryBackend) Close(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.connected = false
	return nil
}

func (mb *MemoryBackend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(mb.readonly)
}

// Disconnect drops the connection and notifies every closed handler.
func (mb *MemoryBackend) Disconnect(err error) {
	mb.mu.Lock()
	mb.connected = false
	mb.mu.Unlock()

	mb.NotifyClosed(err)
}

func (mb *MemoryBackend) IsConnected() bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.connected
}

func (mb *MemoryBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if mb.store.Password != "" && (creds == nil || creds.Password != mb.store.Password) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeNotLoggedIn, "login incorrect"), "server", mb.addr.Server())
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.connected = true
	mb.creds = creds.Clone()
	return nil
}

func (mb *MemoryBackend) Credentials() *backend.Credentials {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.creds.Clone()
}

func (mb *MemoryBackend) LoginOptions() backend.LoginOptions {
	opts := backend.LoginOptions{
		Server:      mb.addr.Server(),
		Credentials: mb.addr.Credentials(),
	}

	if opts.Credentials == nil && mb.store.Password == "" {
		opts.Credentials = &backend.Credentials{}
	}

	return opts
}

func (mb *MemoryBackend) path(location string) (string, error) {
	return mb.addr.PathOf(location)
}

func (mb *MemoryBackend) writable() error {
	if mb.readonly {
		return nerrors.Code(nerrors.CodeReadOnly, "store '%s' is readonly", mb.addr.Host)
	}
	return nil
}

func (mb *MemoryBackend) Cd(ctx context.Context, location string) (string, error) {
	p, err := mb.path(location)
	if err != nil {
		return "", err
	}

	entry, err := mb.store.Stat(p)
	if err != nil {
		return "", err
	}
	if !entry.IsDir() {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	return mb.addr.Location(p), nil
}

func (mb *MemoryBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	p, err := mb.path(location)
	if err != nil {
		return nil, err
	}

	children, err := mb.store.List(p)
	if err != nil {
		return nil, err
	}

	dir := mb.addr.Location(p)
	entries := make([]*data.Entry, 0, len(children)+1)
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}
	for _, child := range children {
		child.Dir = dir
		entries = append(entries, child)
	}

	return entries, nil
}

func (mb *MemoryBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if err := mb.writable(); err != nil {
		return err
	}
	if !mb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	p, err := mb.path(dir)
	if err != nil {
		return err
	}

	return nerrors.WithField(mb.store.Rename(data.JoinPath(p, oldName), data.JoinPath(p, newName)), "filename", newName)
}

func (mb *MemoryBackend) MakeDir(ctx context.Context, parent, name string) error {
	if err := mb.writable(); err != nil {
		return err
	}
	if !mb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	p, err := mb.path(parent)
	if err != nil {
		return err
	}

	return mb.store.Mkdir(data.JoinPath(p, name))
}

func (mb *MemoryBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	if err := mb.writable(); err != nil {
		return 0, err
	}

	p, err := mb.path(dir)
	if err != nil {
		return 0, err
	}

	var errs data.Errors
	removed := 0
	for _, name := range names {
		if err := mb.store.Remove(data.JoinPath(p, name)); err != nil {
			errs.Add(err)
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (mb *MemoryBackend) Exists(ctx context.Context, location string) (bool, error) {
	p, err := mb.path(location)
	if err != nil {
		return false, err
	}

	_, err = mb.store.Stat(p)
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}

	return err == nil, err
}

func (mb *MemoryBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	p, err := mb.path(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		size, err := mb.store.Size(data.JoinPath(p, name))
		if err != nil {
			return total, err
		}
		total += size
	}

	return total, nil
}

func (mb *MemoryBackend) Get(ctx context.Context, location string, w io.Writer) error {
	p, err := mb.path(location)
	if err != nil {
		return err
	}

	content, err := mb.store.ReadFile(p)
	if err != nil {
		return err
	}

	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("failed to write '%s': %w", p, err)
	}

	return nil
}
