package local

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
)

// Server is the server identity shared by every local location.
const Server = "localhost"

// LocalBackend browses the filesystem of the host. It is always connected.
type LocalBackend struct {
	backend.Notifier

	mu     sync.RWMutex
	home   string
	closed bool
}

func NewLocalBackend() *LocalBackend {
	home, _ := os.UserHomeDir()
	return &LocalBackend{
		home: home,
	}
}

// Factory is the registry factory for local locations.
func Factory(ctx context.Context, location string) (backend.Connection, error) {
	return NewLocalBackend(), nil
}

func (*LocalBackend) Kind() backend.Kind {
	return backend.KindLocal
}

func (lb *LocalBackend) Close(ctx context.Context) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.closed = true
	return nil
}

func (*LocalBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			{Type: backend.CapabilityRename},
			{Type: backend.CapabilityMakeDir},
			{Type: backend.CapabilityDelete},
			{Type: backend.CapabilityMeasureSize},
			{Type: backend.CapabilityFetch},
			{Type: backend.CapabilityTerminal},
			{Type: backend.CapabilityOpen},
		},
	}
}

func (lb *LocalBackend) IsConnected() bool {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	return !lb.closed
}

func (lb *LocalBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.closed = false
	return nil
}

func (*LocalBackend) Credentials() *backend.Credentials {
	return &backend.Credentials{}
}

func (*LocalBackend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      Server,
		Credentials: &backend.Credentials{},
	}
}

// resolve converts a location into an absolute, cleaned OS path.
func (lb *LocalBackend) resolve(location string) string {
	p := strings.TrimSpace(location)
	if strings.HasPrefix(strings.ToLower(p), "file://") {
		p = p[len("file://"):]
	}

	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		p = filepath.Join(lb.home, p[1:])
	}

	if abs, err := filepath.Abs(filepath.FromSlash(p)); err == nil {
		return abs
	}

	return filepath.Clean(p)
}

func (lb *LocalBackend) Join(dir string, elem ...string) string {
	return filepath.Join(append([]string{lb.resolve(dir)}, elem...)...)
}

func (lb *LocalBackend) Sanitize(location string) string {
	return lb.resolve(location)
}

func (*LocalBackend) ServerPart(location string) string {
	return Server
}

func (lb *LocalBackend) IsRoot(location string) bool {
	p := lb.resolve(location)
	return filepath.Dir(p) == p
}

func (*LocalBackend) IsDir(entry *data.Entry) bool {
	return entry != nil && entry.IsTraversable()
}

const windowsForbidden = `\/:*?"<>|`

func (*LocalBackend) IsDirectoryNameValid(name string) bool {
	if !data.ValidName(name) {
		return false
	}

	if runtime.GOOS == "windows" {
		return !strings.ContainsAny(name, windowsForbidden) && strings.TrimRight(name, ". ") == name
	}

	return true
}
