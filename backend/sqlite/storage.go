package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

const (
	dirMode  = int64(data.ModeDir | 0o755)
	fileMode = int64(0o644)
)

// subtree matches a path and everything below it.
const subtree = `(path = ? OR substr(path, 1, ?) = ?)`

func subtreeArgs(p string) []any {
	prefix := p + "/"
	return []any{p, len(prefix), prefix}
}

func (sb *SQLiteBackend) path(location string) (string, error) {
	return sb.addr.PathOf(location)
}

func (sb *SQLiteBackend) writable() error {
	if sb.readonly {
		return nerrors.Code(nerrors.CodeReadOnly, "database '%s' is readonly", sb.addr.Host)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type row struct {
	isDir   bool
	mode    int64
	size    int64
	modTime int64
}

func stat(ctx context.Context, db *sql.DB, p string) (*row, error) {
	var r row
	err := db.QueryRowContext(ctx,
		`SELECT is_dir, mode, size, modify_time FROM nav_entries WHERE path = ?`, p,
	).Scan(&r.isDir, &r.mode, &r.size, &r.modTime)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "path", p)
	}
	if err != nil {
		return nil, nerrors.WithField(nerrors.FromSystem(err), "path", p)
	}

	return &r, nil
}

func statDir(ctx context.Context, db *sql.DB, p string) error {
	r, err := stat(ctx, db, p)
	if err != nil {
		return err
	}
	if !r.isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}
	return nil
}

func (sb *SQLiteBackend) Cd(ctx context.Context, location string) (string, error) {
	db, err := sb.conn()
	if err != nil {
		return "", err
	}
	p, err := sb.path(location)
	if err != nil {
		return "", err
	}

	if err := statDir(ctx, db, p); err != nil {
		return "", err
	}

	return sb.addr.Location(p), nil
}

func (sb *SQLiteBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	db, err := sb.conn()
	if err != nil {
		return nil, err
	}
	p, err := sb.path(location)
	if err != nil {
		return nil, err
	}

	if err := statDir(ctx, db, p); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, is_dir, mode, size, modify_time FROM nav_entries
		WHERE parent = ? AND path != '/' ORDER BY name
	`, p)
	if err != nil {
		return nil, nerrors.WithField(nerrors.FromSystem(err), "path", p)
	}
	defer rows.Close()

	dir := sb.addr.Location(p)
	var entries []*data.Entry
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	for rows.Next() {
		var name string
		var r row
		if err := rows.Scan(&name, &r.isDir, &r.mode, &r.size, &r.modTime); err != nil {
			return nil, err
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

	return entries, rows.Err()
}

func (sb *SQLiteBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if err := sb.writable(); err != nil {
		return err
	}
	if !sb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	db, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.path(dir)
	if err != nil {
		return err
	}

	oldPath, newPath := data.JoinPath(p, oldName), data.JoinPath(p, newName)
	if _, err := stat(ctx, db, oldPath); err != nil {
		return err
	}
	if _, err := stat(ctx, db, newPath); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", newName)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nerrors.FromSystem(err)
	}
	defer tx.Rollback()

	cut := len(oldPath) + 1
	prefix := oldPath + "/"

	if _, err := tx.ExecContext(ctx, `
		UPDATE nav_entries SET parent = ? || substr(parent, ?)
		WHERE parent = ? OR substr(parent, 1, ?) = ?
	`, newPath, cut, oldPath, len(prefix), prefix); err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "filename", newName)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE nav_entries SET path = ? || substr(path, ?) WHERE `+subtree,
		append([]any{newPath, cut}, subtreeArgs(oldPath)...)...); err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "filename", newName)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE nav_entries SET name = ?, modify_time = ? WHERE path = ?`,
		newName, time.Now().Unix(), newPath); err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "filename", newName)
	}

	return tx.Commit()
}

func (sb *SQLiteBackend) MakeDir(ctx context.Context, parent, name string) error {
	if err := sb.writable(); err != nil {
		return err
	}
	if !sb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	return sb.insert(ctx, parent, name, true, nil)
}

// WriteFile creates or replaces a file below an existing directory.
func (sb *SQLiteBackend) WriteFile(ctx context.Context, dir, name string, content []byte) error {
	if err := sb.writable(); err != nil {
		return err
	}

	db, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.path(dir)
	if err != nil {
		return err
	}

	if r, err := stat(ctx, db, data.JoinPath(p, name)); err == nil {
		if r.isDir {
			return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "filename", name)
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM nav_entries WHERE path = ?`, data.JoinPath(p, name)); err != nil {
			return nerrors.FromSystem(err)
		}
	}

	return sb.insert(ctx, dir, name, false, content)
}

func (sb *SQLiteBackend) insert(ctx context.Context, parent, name string, isDir bool, content []byte) error {
	db, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.path(parent)
	if err != nil {
		return err
	}

	if err := statDir(ctx, db, p); err != nil {
		return err
	}

	full := data.JoinPath(p, name)
	if _, err := stat(ctx, db, full); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", name)
	}

	mode := fileMode
	if isDir {
		mode = dirMode
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO nav_entries (path, parent, name, is_dir, mode, size, modify_time, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, full, p, name, boolInt(isDir), mode, len(content), time.Now().Unix(), content)
	if err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "filename", name)
	}

	return nil
}

func (sb *SQLiteBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	if err := sb.writable(); err != nil {
		return 0, err
	}

	db, err := sb.conn()
	if err != nil {
		return 0, err
	}
	p, err := sb.path(dir)
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

		result, err := db.ExecContext(ctx, `DELETE FROM nav_entries WHERE `+subtree, subtreeArgs(full)...)
		if err != nil {
			errs.Add(nerrors.WithField(nerrors.FromSystem(err), "filename", name))
			continue
		}

		if n, _ := result.RowsAffected(); n == 0 {
			errs.Add(nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (sb *SQLiteBackend) Exists(ctx context.Context, location string) (bool, error) {
	db, err := sb.conn()
	if err != nil {
		return false, err
	}
	p, err := sb.path(location)
	if err != nil {
		return false, err
	}

	_, err = stat(ctx, db, p)
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}

	return err == nil, err
}

func (sb *SQLiteBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	db, err := sb.conn()
	if err != nil {
		return 0, err
	}
	p, err := sb.path(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		full := data.JoinPath(p, name)
		if _, err := stat(ctx, db, full); err != nil {
			return total, err
		}

		var size int64
		if err := db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(size), 0) FROM nav_entries WHERE `+subtree, subtreeArgs(full)...,
		).Scan(&size); err != nil {
			return total, nerrors.WithField(nerrors.FromSystem(err), "path", full)
		}
		total += size
	}

	return total, nil
}

func (sb *SQLiteBackend) Get(ctx context.Context, location string, w io.Writer) error {
	db, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.path(location)
	if err != nil {
		return err
	}

	r, err := stat(ctx, db, p)
	if err != nil {
		return err
	}
	if r.isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}

	var content []byte
	if err := db.QueryRowContext(ctx, `SELECT content FROM nav_entries WHERE path = ?`, p).Scan(&content); err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "path", p)
	}

	_, err = w.Write(content)
	return err
}
