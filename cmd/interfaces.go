package cmd

import (
	"context"
	"io"

	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	"github.com/mwantia/navigator/history"
)

// API is the part of a navigator.Session that commands operate on.
type API interface {
	// Location returns the location of the last successful navigation.
	Location() string

	// Entries returns the last successful listing.
	Entries() []*data.Entry

	// Status returns the connection status of the session.
	Status() data.Status

	// History returns a snapshot of the navigation history.
	History() history.Snapshot

	// Backend returns kind and server identity of the active connection.
	Backend() (backend.Kind, string, bool)

	Navigate(ctx context.Context, location string, opts ...navigator.NavigateOption) (string, error)
	Back(ctx context.Context) (string, error)
	Forward(ctx context.Context) (string, error)
	Reload(ctx context.Context) (string, error)

	List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error)
	Rename(ctx context.Context, dir string, entry *data.Entry, newName string) (string, error)
	MakeDirectory(ctx context.Context, parent, name string) error
	Delete(ctx context.Context, dir string, entries []*data.Entry) (int, error)
	Exists(ctx context.Context, location string) (bool, error)
	MeasureSize(ctx context.Context, dir string, names []string) (int64, error)
	FetchToLocalTemp(ctx context.Context, dir, name string) (string, error)
	OpenEntry(ctx context.Context, entry *data.Entry) (string, error)
	OpenTerminal(dir string) error

	// Login answers a pending login, or logs in the active connection.
	Login(ctx context.Context, creds *backend.Credentials) error
}

var _ API = (*navigator.Session)(nil)

// Command represents an executable shell command.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "ls [-a] [path]")
	Usage() string

	// Execute runs the command with parsed arguments.
	// The writer parameter is where command output should be written.
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}
