package backend

import (
	"context"
	"io"

	"github.com/mwantia/navigator/data"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindLocal    Kind = "local"
	KindMemory   Kind = "memory"
	KindFTP      Kind = "ftp"
	KindS3       Kind = "s3"
	KindConsul   Kind = "consul"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindSSH      Kind = "ssh"
)

func (k Kind) String() string {
	return string(k)
}

// Navigator changes into and lists locations.
type Navigator interface {
	// Cd verifies that location is a readable directory and returns its canonical form.
	Cd(ctx context.Context, location string) (string, error)
	// List returns the entries of location, optionally prefixed with the ".." entry.
	List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error)
}

// Mutator performs changes and queries below a directory.
type Mutator interface {
	Rename(ctx context.Context, dir, oldName, newName string) error
	MakeDir(ctx context.Context, parent, name string) error
	// Delete removes every name below dir and returns how many were removed.
	Delete(ctx context.Context, dir string, names []string) (int, error)
	Exists(ctx context.Context, location string) (bool, error)
	// Size returns the accumulated size in bytes of names, descending into directories.
	Size(ctx context.Context, dir string, names []string) (int64, error)
	// Get streams the content of a file into w.
	Get(ctx context.Context, location string, w io.Writer) error
}

// PathUtil contains the location helpers of a backend. None of them perform I/O.
type PathUtil interface {
	Join(dir string, elem ...string) string
	// Sanitize returns the canonical location, stripped of any secret.
	Sanitize(location string) string
	// ServerPart returns the identity of the server a location points at.
	ServerPart(location string) string
	IsRoot(location string) bool
	IsDir(entry *data.Entry) bool
	IsDirectoryNameValid(name string) bool
}

// Authenticator covers the connection state and the login handshake.
type Authenticator interface {
	IsConnected() bool
	Login(ctx context.Context, server string, creds *Credentials) error
	// Credentials returns the credentials of the last successful login.
	Credentials() *Credentials
	// LoginOptions is readable before the first operation.
	LoginOptions() LoginOptions
}

// Subscriber lets the session observe a connection closing underneath it.
type Subscriber interface {
	OnClosed(handler func(error))
	UnsubscribeAll()
}

// Connection is the full capability set consumed by the session.
type Connection interface {
	Navigator
	Mutator
	PathUtil
	Authenticator
	Subscriber

	Kind() Kind
	Capabilities() *Capabilities
	// Close releases the connection. Closed handlers are not called.
	Close(ctx context.Context) error
}
