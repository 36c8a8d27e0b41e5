package navigator

import (
	"time"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/backend/consul"
	"github.com/mwantia/navigator/backend/ftp"
	"github.com/mwantia/navigator/backend/local"
	"github.com/mwantia/navigator/backend/memory"
	"github.com/mwantia/navigator/backend/postgres"
	"github.com/mwantia/navigator/backend/s3"
	"github.com/mwantia/navigator/backend/sqlite"
	"github.com/mwantia/navigator/backend/ssh"
	"github.com/mwantia/navigator/log"
)

type RegistryOptions struct {
	Lookup  backend.CredentialLookup
	DataDir string
	Stores  *memory.Stores
	Timeout time.Duration
	Logger  *log.Logger
}

type RegistryOption func(*RegistryOptions) error

func newDefaultRegistryOptions() *RegistryOptions {
	return &RegistryOptions{
		Stores:  memory.NewStores(),
		Timeout: 30 * time.Second,
		Logger:  log.Discard(),
	}
}

// WithCredentialStore resolves stored credentials for remote backends.
func WithCredentialStore(lookup backend.CredentialLookup) RegistryOption {
	return func(opts *RegistryOptions) error {
		opts.Lookup = lookup
		return nil
	}
}

// WithDataDir stores sqlite databases below dir instead of in memory.
func WithDataDir(dir string) RegistryOption {
	return func(opts *RegistryOptions) error {
		opts.DataDir = dir
		return nil
	}
}

// WithMemoryStore shares store with every mem://name connection.
func WithMemoryStore(name string, store *memory.Store) RegistryOption {
	return func(opts *RegistryOptions) error {
		opts.Stores.Set(name, store)
		return nil
	}
}

func WithRegistryTimeout(timeout time.Duration) RegistryOption {
	return func(opts *RegistryOptions) error {
		opts.Timeout = timeout
		return nil
	}
}

func WithRegistryLogger(logger *log.Logger) RegistryOption {
	return func(opts *RegistryOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

// NewRegistry registers every bundled backend.
func NewRegistry(opts ...RegistryOption) (*backend.Registry, error) {
	options := newDefaultRegistryOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	remote := []backend.Option{
		backend.WithCredentialLookup(options.Lookup),
		backend.WithTimeout(options.Timeout),
		backend.WithLogger(options.Logger.Named("backend")),
	}

	registry := backend.NewRegistry()
	registrations := []struct {
		kind     backend.Kind
		factory  backend.Factory
		prefixes []string
	}{
		{backend.KindLocal, local.Factory, []string{"file://"}},
		{backend.KindMemory, memory.Factory(options.Stores), []string{"mem://", "memory://"}},
		{backend.KindFTP, ftp.Factory(remote...), []string{"ftp://"}},
		{backend.KindS3, s3.Factory(remote...), []string{"s3://", "minio://"}},
		{backend.KindConsul, consul.Factory(remote...), []string{"consul://"}},
		{backend.KindSQLite, sqlite.Factory(options.DataDir), []string{"sqlite://"}},
		{backend.KindPostgres, postgres.Factory(remote...), []string{"postgres://", "postgresql://"}},
		{backend.KindSSH, ssh.Factory(remote...), []string{"ssh://"}},
	}

	for _, r := range registrations {
		if err := registry.Register(r.kind, r.factory, r.prefixes...); err != nil {
			return nil, err
		}
	}
	registry.RegisterMatcher(backend.KindLocal, backend.IsLocalPath)

	return registry, nil
}
