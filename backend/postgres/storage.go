package postgres

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

const (
	dirMode  = int64(data.ModeDir | 0o755)
	fileMode = int64(0o644)
)

func (pb *PostgresBackend) writable() error {
	if pb.addr.Bool("readonly") {
		return nerrors.Code(nerrors.CodeReadOnly, "database '%s' is readonly", pb.database)
	}
	return nil
}

type row struct {
	isDir   bool
	mode    int64
	size    int64
	modTime int64
}

func stat(ctx context.Context, pool *pgxpool.Pool, p string) (*row, error) {
	var r row
	err := pool.QueryRow(ctx,
		`SELECT is_dir, mode, size, modify_time FROM nav_entries WHERE path = $1`, p,
	).Scan(&r.isDir, &r.mode, &r.size, &r.modTime)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "path", p)
	}
	if err != nil {
		return nil, nerrors.WithField(convertError(err), "path", p)
	}

	return &r, nil
}

func statDir(ctx context.Context, pool *pgxpool.Pool, p string) error {
	r, err := stat(ctx, pool, p)
	if err != nil {
		return err
	}
	if !r.isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}
	return nil
}

func (pb *PostgresBackend) Cd(ctx context.Context, location string) (string, error) {
	pool, err := pb.conn()
	if err != nil {
		return "", err
	}
	p, err := pb.path(location)
	if err != nil {
		return "", err
	}

	if err := statDir(ctx, pool, p); err != nil {
		return "", err
	}

	return pb.location(p), nil
}

func (pb *PostgresBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	pool, err := pb.conn()
	if err != nil {
		return nil, err
	}
	p, err := pb.path(location)
	if err != nil {
		return nil, err
	}

	if err := statDir(ctx, pool, p); err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT name, is_dir, mode, size, modify_time FROM nav_entries
		WHERE parent = $1 AND path <> '/' ORDER BY name
	`, p)
	if err != nil {
		return nil, nerrors.WithField(convertError(err), "path", p)
	}
	defer rows.Close()

	dir := pb.location(p)
	var entries []*data.Entry
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	for rows.Next() {
		var name string
		var r row
		if err := rows.Scan(&name, &r.isDir, &r.mode, &r.size, &r.modTime); err != nil {
			return nil, convertError(err)
		}

		entry := &data.Entry{
			Name:       name,
			Dir:        dir,
			Mode:       data.FileMode(r.mode),
			Size:       r.size,
			ModifyTime: time.Unix(r.modTime, 0),
		}
		if r.isDir {
			entry.Type = data.FileTypeDirectory
			entry.ContentType = data.ContentTypeDirectory
		} else {
			entry.Type = data.FileTypeFile
			entry.ContentType = data.GetMIMEType(name)
		}
		entries = append(entries, entry)
	}

	return entries, convertError(rows.Err())
}

func (pb *PostgresBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if err := pb.writable(); err != nil {
		return err
	}
	if !pb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	pool, err := pb.conn()
	if err != nil {
		return err
	}
	p, err := pb.path(dir)
	if err != nil {
		return err
	}

	oldPath, newPath := data.JoinPath(p, oldName), data.JoinPath(p, newName)
	if _, err := stat(ctx, pool, oldPath); err != nil {
		return err
	}
	if _, err := stat(ctx, pool, newPath); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", newName)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return convertError(err)
	}
	defer tx.Rollback(ctx)

	cut := len(oldPath) + 1
	prefix := oldPath + "/"

	if _, err := tx.Exec(ctx, `
		UPDATE nav_entries SET parent = $1 || substr(parent, $2)
		WHERE parent = $3 OR starts_with(parent, $4)
	`, newPath, cut, oldPath, prefix); err != nil {
		return nerrors.WithField(convertError(err), "filename", newName)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE nav_entries SET path = $1 || substr(path, $2)
		WHERE path = $3 OR starts_with(path, $4)
	`, newPath, cut, oldPath, prefix); err != nil {
		return nerrors.WithField(convertError(err), "filename", newName)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE nav_entries SET name = $1, modify_time = $2 WHERE path = $3`,
		newName, time.Now().Unix(), newPath); err != nil {
		return nerrors.WithField(convertError(err), "filename", newName)
	}

	return convertError(tx.Commit(ctx))
}

func (pb *PostgresBackend) MakeDir(ctx context.Context, parent, name string) error {
	if err := pb.writable(); err != nil {
		return err
	}
	if !pb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	pool, err := pb.conn()
	if err != nil {
		return err
	}
	p, err := pb.path(parent)
	if err != nil {
		return err
	}

	if err := statDir(ctx, pool, p); err != nil {
		return err
	}

	full := data.JoinPath(p, name)
	tag, err := pool.Exec(ctx, `
		INSERT INTO nav_entries (path, parent, name, is_dir, mode, size, modify_time)
		VALUES ($1, $2, $3, TRUE, $4, 0, $5)
		ON CONFLICT (path) DO NOTHING
	`, full, p, name, dirMode, time.Now().Unix())
	if err != nil {
		return nerrors.WithField(convertError(err), "filename", name)
	}
	if tag.RowsAffected() == 0 {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", name)
	}

	return nil
}

// WriteFile creates or replaces a file below an existing directory.
func (pb *PostgresBackend) WriteFile(ctx context.Context, dir, name string, content []byte) error {
	if err := pb.writable(); err != nil {
		return err
	}

	pool, err := pb.conn()
	if err != nil {
		return err
	}
	p, err := pb.path(dir)
	if err != nil {
		return err
	}

	if err := statDir(ctx, pool, p); err != nil {
		return err
	}

	full := data.JoinPath(p, name)
	if r, err := stat(ctx, pool, full); err == nil && r.isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "filename", name)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO nav_entries (path, parent, name, is_dir, mode, size, modify_time, content)
		VALUES ($1, $2, $3, FALSE, $4, $5, $6, $7)
		ON CONFLICT (path) DO UPDATE SET
			size = EXCLUDED.size,
			modify_time = EXCLUDED.modify_time,
			content = EXCLUDED.content
	`, full, p, name, fileMode, int64(len(content)), time.Now().Unix(), content)
	if err != nil {
		return nerrors.WithField(convertError(err), "filename", name)
	}

	return nil
}

func (pb *PostgresBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	if err := pb.writable(); err != nil {
		return 0, err
	}

	pool, err := pb.conn()
	if err != nil {
		return 0, err
	}
	p, err := pb.path(dir)
	if err != nil {
		return 0, err
	}

	var errs data.Errors
	removed := 0
	for _, name := range names {
		full := data.JoinPath(p, name)
		if full == "/" {
			errs.Add(nerrors.WithField(nerrors.Code(nerrors.CodePerm, "cannot remove root"), "filename", name))
			continue
		}

		tag, err := pool.Exec(ctx,
			`DELETE FROM nav_entries WHERE path = $1 OR starts_with(path, $2)`, full, full+"/")
		if err != nil {
			errs.Add(nerrors.WithField(convertError(err), "filename", name))
			continue
		}

		if tag.RowsAffected() == 0 {
			errs.Add(nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (pb *PostgresBackend) Exists(ctx context.Context, location string) (bool, error) {
	pool, err := pb.conn()
	if err != nil {
		return false, err
	}
	p, err := pb.path(location)
	if err != nil {
		return false, err
	}

	_, err = stat(ctx, pool, p)
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}

	return err == nil, err
}

func (pb *PostgresBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	pool, err := pb.conn()
	if err != nil {
		return 0, err
	}
	p, err := pb.path(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		full := data.JoinPath(p, name)
		if _, err := stat(ctx, pool, full); err != nil {
			return total, err
		}

		var size int64
		if err := pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(size), 0)::bigint FROM nav_entries WHERE path = $1 OR starts_with(path, $2)`,
			full, full+"/",
		).Scan(&size); err != nil {
			return total, nerrors.WithField(convertError(err), "path", full)
		}
		total += size
	}

	return total, nil
}

func (pb *PostgresBackend) Get(ctx context.Context, location string, w io.Writer) error {
	pool, err := pb.conn()
	if err != nil {
		return err
	}
	p, err := pb.path(location)
	if err != nil {
		return err
	}

	r, err := stat(ctx, pool, p)
	if err != nil {
		return err
	}
	if r.isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}

	var content []byte
	if err := pool.QueryRow(ctx, `SELECT content FROM nav_entries WHERE path = $1`, p).Scan(&content); err != nil {
		return nerrors.WithField(convertError(err), "path", p)
	}

	_, err = w.Write(content)
	return err
}
