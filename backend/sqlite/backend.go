package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteBackend stores a directory tree in a single SQLite table.
//
// Every row is one entry keyed by its cleaned path; the parent column is
// indexed so listings are a single query. Locations have the form
// sqlite://name/path where name selects the database file <dataDir>/name.db.
// Without a data directory every connection works on a private in-memory
// database.
type SQLiteBackend struct {
	backend.Notifier
	backend.URLPaths

	mu       sync.RWMutex
	db       *sql.DB
	addr     *backend.Address
	dbPath   string
	readonly bool
}

// NewSQLiteBackend creates a disconnected backend; the database is opened on Login.
func NewSQLiteBackend(location, dataDir string) (*SQLiteBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	dbPath := ":memory:"
	if dataDir != "" {
		dbPath = filepath.Join(dataDir, addr.Host+".db")
	}

	return &SQLiteBackend{
		addr:     addr,
		dbPath:   dbPath,
		readonly: addr.Bool("readonly"),
	}, nil
}

// Factory returns a registry factory storing databases below dataDir.
func Factory(dataDir string) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewSQLiteBackend(location, dataDir)
	}
}

func (*SQLiteBackend) Kind() backend.Kind {
	return backend.KindSQLite
}

func (sb *SQLiteBackend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(sb.readonly)
}

func (sb *SQLiteBackend) IsConnected() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	return sb.db != nil
}

// Login opens the database and creates the schema.
func (sb *SQLiteBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", sb.dbPath)
	if err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "path", sb.dbPath)
	}
	// A :memory: database only exists within a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nerrors.WithField(nerrors.Wrap(err, nerrors.CodeConnRefused, "failed to open database"), "path", sb.dbPath)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nerrors.WithField(nerrors.FromSystem(err), "path", sb.dbPath)
	}

	sb.db = db
	return nil
}

func (*SQLiteBackend) Credentials() *backend.Credentials {
	return &backend.Credentials{}
}

func (sb *SQLiteBackend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      sb.addr.Server(),
		Credentials: &backend.Credentials{},
	}
}

func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db == nil {
		return nil
	}

	err := sb.db.Close()
	sb.db = nil
	return err
}

func (sb *SQLiteBackend) conn() (*sql.DB, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.db == nil {
		return nil, nerrors.Code(nerrors.CodeNotLoggedIn, "database '%s' is not open", sb.addr.Host)
	}
	return sb.db, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS nav_entries (
		path TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		name TEXT NOT NULL,
		is_dir INTEGER NOT NULL,
		mode INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		modify_time INTEGER NOT NULL,
		content BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_nav_entries_parent ON nav_entries(parent);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO nav_entries (path, parent, name, is_dir, mode, size, modify_time)
		VALUES ('/', '', '', 1, ?, 0, strftime('%s','now'))
	`, dirMode)
	return err
}
