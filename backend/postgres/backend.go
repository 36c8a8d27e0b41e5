package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

const DefaultPort = 5432

// PostgresBackend stores a directory tree in a PostgreSQL table.
//
// Locations have the form postgres://[user@]host[:port]/database/path.
// The database is part of the server identity, so moving between
// databases switches connections.
type PostgresBackend struct {
	backend.Notifier
	backend.URLPaths

	mu       sync.RWMutex
	pool     *pgxpool.Pool
	addr     *backend.Address
	database string
	creds    *backend.Credentials
	options  *backend.Options
	log      *log.Logger
}

func NewPostgresBackend(location string, opts ...backend.Option) (*PostgresBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	database, _ := split(addr.Path)
	if database == "" {
		return nil, fmt.Errorf("failed to parse address '%s': missing database: %w", location, data.ErrMalformedAddress)
	}

	return &PostgresBackend{
		addr:     addr,
		database: database,
		options:  options,
		log:      options.Logger.Named("postgres"),
	}, nil
}

// Factory returns a registry factory applying opts to every connection.
func Factory(opts ...backend.Option) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewPostgresBackend(location, opts...)
	}
}

// split separates the database from the path inside it.
func split(p string) (string, string) {
	database, rest, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return database, data.CleanPath(rest)
}

func (*PostgresBackend) Kind() backend.Kind {
	return backend.KindPostgres
}

func (pb *PostgresBackend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(pb.addr.Bool("readonly"))
}

// ServerPart includes the database.
func (pb *PostgresBackend) ServerPart(location string) string {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return ""
	}

	database, _ := split(addr.Path)
	return addr.Server() + "/" + database
}

func (pb *PostgresBackend) IsRoot(location string) bool {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return false
	}

	_, p := split(addr.Path)
	return p == "/"
}

func (pb *PostgresBackend) IsConnected() bool {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	return pb.pool != nil
}

func (pb *PostgresBackend) connString(creds *backend.Credentials) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   pb.addr.HostPort(DefaultPort),
		Path:   "/" + pb.database,
	}

	user := creds.User
	if user == "" {
		user = pb.addr.User
	}
	if user != "" {
		u.User = url.UserPassword(user, creds.Password)
	}

	query := url.Values{}
	if mode := pb.addr.Query.Get("sslmode"); mode != "" {
		query.Set("sslmode", mode)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

func (pb *PostgresBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if creds == nil {
		creds = &backend.Credentials{}
	}

	config, err := pgxpool.ParseConfig(pb.connString(creds))
	if err != nil {
		return nerrors.WithField(nerrors.Wrap(err, nerrors.CodeInvalid, "invalid connection string"), "server", pb.addr.Server())
	}

	// Disable prepared statement caching to avoid collisions in pooled connections
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	config.ConnConfig.ConnectTimeout = pb.options.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nerrors.WithField(convertError(err), "server", pb.addr.Server())
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nerrors.WithField(convertError(err), "server", pb.addr.Server())
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nerrors.WithField(convertError(err), "server", pb.addr.Server())
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.pool != nil {
		pb.pool.Close()
	}
	pb.pool = pool
	pb.creds = creds.Clone()

	pb.log.Info("Connected to database '%s' on '%s'", pb.database, pb.addr.Server())
	return nil
}

func (pb *PostgresBackend) Credentials() *backend.Credentials {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	return pb.creds.Clone()
}

func (pb *PostgresBackend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      pb.ServerPart(pb.addr.String()),
		Credentials: backend.StoredCredentials(pb.addr, pb.options.Lookup),
	}
}

func (pb *PostgresBackend) Close(ctx context.Context) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.pool != nil {
		pb.pool.Close()
		pb.pool = nil
	}
	return nil
}

func (pb *PostgresBackend) conn() (*pgxpool.Pool, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.pool == nil {
		return nil, nerrors.Code(nerrors.CodeNotLoggedIn, "not connected to '%s'", pb.addr.Server())
	}
	return pb.pool, nil
}

// path returns the path inside the database for location.
func (pb *PostgresBackend) path(location string) (string, error) {
	p, err := pb.addr.PathOf(location)
	if err != nil {
		return "", err
	}

	database, inner := split(p)
	if database != pb.database {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNoFilesystem, "location belongs to database '%s'", database), "location", location)
	}
	return inner, nil
}

// location renders a path inside the database.
func (pb *PostgresBackend) location(p string) string {
	return pb.addr.Location(data.JoinPath("/"+pb.database, p))
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS nav_entries (
			path TEXT PRIMARY KEY,
			parent TEXT NOT NULL,
			name TEXT NOT NULL,
			is_dir BOOLEAN NOT NULL,
			mode BIGINT NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			modify_time BIGINT NOT NULL,
			content BYTEA
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nav_entries_parent ON nav_entries(parent)`,
		`CREATE INDEX IF NOT EXISTS idx_nav_entries_prefix ON nav_entries(path text_pattern_ops)`,
		`INSERT INTO nav_entries (path, parent, name, is_dir, mode, size, modify_time)
			VALUES ('/', '', '', TRUE, ` + fmt.Sprint(dirMode) + `, 0, extract(epoch from now())::bigint)
			ON CONFLICT (path) DO NOTHING`,
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

var sqlStateCodes = map[string]string{
	"28P01": nerrors.CodeNotLoggedIn, // invalid_password
	"28000": nerrors.CodeNotLoggedIn, // invalid_authorization_specification
	"3D000": nerrors.CodeNotExist,    // invalid_catalog_name
	"42501": nerrors.CodeAccess,      // insufficient_privilege
	"25006": nerrors.CodeReadOnly,    // read_only_sql_transaction
	"57P03": nerrors.CodeServiceNotReady,
	"53300": nerrors.CodeServiceNotReady, // too_many_connections
}

func convertError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := sqlStateCodes[pgErr.Code]; ok {
			return nerrors.Wrap(err, code, "%s", pgErr.Message)
		}
		return nerrors.Wrap(err, pgErr.Code, "%s", pgErr.Message)
	}

	return nerrors.FromSystem(err)
}
