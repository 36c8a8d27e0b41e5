package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/tidwall/btree"
)

type node struct {
	dir     bool
	mode    data.FileMode
	content []byte
	modTime time.Time
}

// Store is an in-memory tree of directories and files keyed by cleaned path.
// A store can be shared by several connections.
type Store struct {
	mu sync.RWMutex

	keys *btree.Map[string, *node]

	// Password, when set, must be presented on login.
	Password string
}

func NewStore() *Store {
	s := &Store{
		keys: btree.NewMap[string, *node](0),
	}
	s.keys.Set("/", &node{
		dir:     true,
		mode:    data.ModeDir | 0o755,
		modTime: time.Now(),
	})

	return s
}

func notFound(p string) error {
	return nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "path", p)
}

func childPrefix(p string) string {
	if p == "/" {
		return "/"
	}
	return p + "/"
}

// each visits every key strictly below p in order.
func (s *Store) each(p string, fn func(key string, n *node) bool) {
	prefix := childPrefix(p)
	s.keys.Ascend(prefix, func(key string, n *node) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		if key == p {
			return true
		}
		return fn(key, n)
	})
}

func (s *Store) stat(p string) (*node, error) {
	n, ok := s.keys.Get(p)
	if !ok {
		return nil, notFound(p)
	}
	return n, nil
}

func (s *Store) parentDir(p string) error {
	parent, err := s.stat(data.ParentPath(p))
	if err != nil {
		return err
	}
	if !parent.dir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", data.ParentPath(p))
	}
	return nil
}

// Mkdir creates a single directory below an existing parent.
func (s *Store) Mkdir(p string) error {
	p = data.CleanPath(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys.Get(p); ok {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "path", p)
	}
	if err := s.parentDir(p); err != nil {
		return err
	}

	s.keys.Set(p, &node{
		dir:     true,
		mode:    data.ModeDir | 0o755,
		modTime: time.Now(),
	})
	return nil
}

// MkdirAll creates p and every missing parent.
func (s *Store) MkdirAll(p string) error {
	p = data.CleanPath(p)
	if p == "/" {
		return nil
	}

	if err := s.MkdirAll(data.ParentPath(p)); err != nil {
		return err
	}

	err := s.Mkdir(p)
	if nerrors.CodeOf(err) == nerrors.CodeExist {
		s.mu.RLock()
		n, _ := s.keys.Get(p)
		s.mu.RUnlock()
		if n != nil && n.dir {
			return nil
		}
	}
	return err
}

// WriteFile creates or replaces a file below an existing directory.
func (s *Store) WriteFile(p string, content []byte) error {
	p = data.CleanPath(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.keys.Get(p); ok && n.dir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}
	if err := s.parentDir(p); err != nil {
		return err
	}

	s.keys.Set(p, &node{
		mode:    0o644,
		content: append([]byte(nil), content...),
		modTime: time.Now(),
	})
	return nil
}

// Remove deletes p and everything below it.
func (s *Store) Remove(p string) error {
	p = data.CleanPath(p)
	if p == "/" {
		return nerrors.WithField(nerrors.Code(nerrors.CodePerm, "cannot remove root"), "path", p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stat(p); err != nil {
		return err
	}

	var keys []string
	s.each(p, func(key string, _ *node) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		s.keys.Delete(key)
	}
	s.keys.Delete(p)

	return nil
}

// Rename moves the subtree at oldPath to newPath.
func (s *Store) Rename(oldPath, newPath string) error {
	oldPath, newPath = data.CleanPath(oldPath), data.CleanPath(newPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.stat(oldPath)
	if err != nil {
		return err
	}
	if _, ok := s.keys.Get(newPath); ok {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "path", newPath)
	}
	if data.HasPrefix(newPath, oldPath) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeInvalid, "cannot move into itself"), "path", newPath)
	}
	if err := s.parentDir(newPath); err != nil {
		return err
	}

	moved := map[string]*node{newPath: n}
	s.each(oldPath, func(key string, child *node) bool {
		moved[newPath+strings.TrimPrefix(key, oldPath)] = child
		return true
	})
	for key := range moved {
		s.keys.Delete(oldPath + strings.TrimPrefix(key, newPath))
	}
	for key, child := range moved {
		s.keys.Set(key, child)
	}

	return nil
}

// List returns the direct children of the directory p.
func (s *Store) List(p string) ([]*data.Entry, error) {
	p = data.CleanPath(p)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.stat(p)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	prefix := childPrefix(p)
	var entries []*data.Entry
	s.each(p, func(key string, child *node) bool {
		name := strings.TrimPrefix(key, prefix)
		if strings.Contains(name, "/") {
			return true
		}
		entries = append(entries, child.entry(name, p))
		return true
	})

	return entries, nil
}

// Stat returns the entry describing p.
func (s *Store) Stat(p string) (*data.Entry, error) {
	p = data.CleanPath(p)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.stat(p)
	if err != nil {
		return nil, err
	}

	return n.entry(data.BaseName(p), data.ParentPath(p)), nil
}

// ReadFile returns a copy of the file content at p.
func (s *Store) ReadFile(p string) ([]byte, error) {
	p = data.CleanPath(p)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.stat(p)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}

	return append([]byte(nil), n.content...), nil
}

// Size sums the file sizes at and below p.
func (s *Store) Size(p string) (int64, error) {
	p = data.CleanPath(p)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.stat(p)
	if err != nil {
		return 0, err
	}

	total := int64(len(n.content))
	s.each(p, func(_ string, child *node) bool {
		total += int64(len(child.content))
		return true
	})

	return total, nil
}

func (n *node) entry(name, dir string) *data.Entry {
	e := &data.Entry{
		Name:       name,
		Dir:        dir,
		Mode:       n.mode,
		Size:       int64(len(n.content)),
		ModifyTime: n.modTime,
	}

	if n.dir {
		e.Type = data.FileTypeDirectory
		e.ContentType = data.ContentTypeDirectory
	} else {
		e.Type = data.FileTypeFile
		e.ContentType = data.GetMIMEType(name)
	}

	return e
}
