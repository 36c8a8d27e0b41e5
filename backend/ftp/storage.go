package ftp

import (
	"context"
	"io"

	"github.com/jlaffaye/ftp"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

func (fb *FTPBackend) Cd(ctx context.Context, location string) (string, error) {
	p, err := fb.addr.PathOf(location)
	if err != nil {
		return "", err
	}

	var current string
	err = fb.do(func(conn *ftp.ServerConn) error {
		if err := conn.ChangeDir(p); err != nil {
			return err
		}

		dir, err := conn.CurrentDir()
		current = dir
		return err
	})
	if err != nil {
		return "", nerrors.WithField(err, "path", p)
	}

	return fb.addr.Location(current), nil
}

func (fb *FTPBackend) list(p string) ([]*ftp.Entry, error) {
	var entries []*ftp.Entry
	err := fb.do(func(conn *ftp.ServerConn) error {
		var err error
		entries, err = conn.List(p)
		return err
	})

	return entries, nerrors.WithField(err, "path", p)
}

func (fb *FTPBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	p, err := fb.addr.PathOf(location)
	if err != nil {
		return nil, err
	}

	raw, err := fb.list(p)
	if err != nil {
		return nil, err
	}

	dir := fb.addr.Location(p)
	entries := make([]*data.Entry, 0, len(raw)+1)
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	for _, e := range raw {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		entries = append(entries, toEntry(dir, e))
	}

	return entries, nil
}

func toEntry(dir string, e *ftp.Entry) *data.Entry {
	entry := &data.Entry{
		Name:       e.Name,
		Dir:        dir,
		Size:       int64(e.Size),
		ModifyTime: e.Time,
	}

	switch e.Type {
	case ftp.EntryTypeFolder:
		entry.Type = data.FileTypeDirectory
		entry.Mode = data.ModeDir | 0o755
		entry.Size = 0
		entry.ContentType = data.ContentTypeDirectory
	case ftp.EntryTypeLink:
		entry.Type = data.FileTypeSymlink
		entry.Mode = data.ModeSymlink | 0o777
		entry.Target = e.Target
	default:
		entry.Type = data.FileTypeFile
		entry.Mode = 0o644
		entry.ContentType = data.GetMIMEType(e.Name)
	}

	return entry
}

func (fb *FTPBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if !fb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	p, err := fb.addr.PathOf(dir)
	if err != nil {
		return err
	}

	err = fb.do(func(conn *ftp.ServerConn) error {
		return conn.Rename(data.JoinPath(p, oldName), data.JoinPath(p, newName))
	})
	return nerrors.WithField(err, "filename", newName)
}

func (fb *FTPBackend) MakeDir(ctx context.Context, parent, name string) error {
	if !fb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	p, err := fb.addr.PathOf(parent)
	if err != nil {
		return err
	}

	err = fb.do(func(conn *ftp.ServerConn) error {
		return conn.MakeDir(data.JoinPath(p, name))
	})
	return nerrors.WithField(err, "filename", name)
}

// types lists dir once and indexes the entry types by name.
func (fb *FTPBackend) types(p string) (map[string]ftp.EntryType, error) {
	raw, err := fb.list(p)
	if err != nil {
		return nil, err
	}

	types := make(map[string]ftp.EntryType, len(raw))
	for _, e := range raw {
		types[e.Name] = e.Type
	}
	return types, nil
}

func (fb *FTPBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	p, err := fb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	types, err := fb.types(p)
	if err != nil {
		return 0, err
	}

	var errs data.Errors
	removed := 0
	for _, name := range names {
		entryType, exists := types[name]
		if !exists {
			errs.Add(nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "filename", name))
			continue
		}

		target := data.JoinPath(p, name)
		err := fb.do(func(conn *ftp.ServerConn) error {
			if entryType == ftp.EntryTypeFolder {
				return conn.RemoveDirRecur(target)
			}
			return conn.Delete(target)
		})
		if err != nil {
			errs.Add(nerrors.WithField(err, "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (fb *FTPBackend) Exists(ctx context.Context, location string) (bool, error) {
	p, err := fb.addr.PathOf(location)
	if err != nil {
		return false, err
	}
	if p == "/" {
		return true, nil
	}

	types, err := fb.types(data.ParentPath(p))
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, exists := types[data.BaseName(p)]
	return exists, nil
}

func (fb *FTPBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	p, err := fb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	types, err := fb.types(p)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		entryType, exists := types[name]
		if !exists {
			return total, nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "filename", name)
		}

		target := data.JoinPath(p, name)
		err := fb.do(func(conn *ftp.ServerConn) error {
			if entryType != ftp.EntryTypeFolder {
				size, err := conn.FileSize(target)
				total += size
				return err
			}

			walker := conn.Walk(target)
			for walker.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if entry := walker.Stat(); entry.Type == ftp.EntryTypeFile {
					total += int64(entry.Size)
				}
			}
			return walker.Err()
		})
		if err != nil {
			return total, nerrors.WithField(err, "filename", name)
		}
	}

	return total, nil
}

func (fb *FTPBackend) Get(ctx context.Context, location string, w io.Writer) error {
	p, err := fb.addr.PathOf(location)
	if err != nil {
		return err
	}

	err = fb.do(func(conn *ftp.ServerConn) error {
		resp, err := conn.Retr(p)
		if err != nil {
			return err
		}
		defer resp.Close()

		_, err = io.Copy(w, resp)
		return err
	})
	return nerrors.WithField(err, "path", p)
}
