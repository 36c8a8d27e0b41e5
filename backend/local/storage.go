package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

func wrap(err error, key, value string) error {
	return nerrors.WithField(nerrors.FromSystem(err), key, value)
}

func (lb *LocalBackend) Cd(ctx context.Context, location string) (string, error) {
	p := lb.resolve(location)

	info, err := os.Stat(p)
	if err != nil {
		return "", wrap(err, "path", p)
	}

	if !info.IsDir() {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	f, err := os.Open(p)
	if err != nil {
		return "", wrap(err, "path", p)
	}

	return p, f.Close()
}

func (lb *LocalBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	p := lb.resolve(location)

	dirEntries, err := os.ReadDir(p)
	if err != nil {
		return nil, wrap(err, "path", p)
	}

	entries := make([]*data.Entry, 0, len(dirEntries)+1)
	if includeParent && !lb.IsRoot(p) {
		entries = append(entries, data.NewParentEntry(p))
	}

	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Lstat
			continue
		}

		entries = append(entries, lb.toEntry(p, info))
	}

	return entries, nil
}

func (lb *LocalBackend) toEntry(dir string, info fs.FileInfo) *data.Entry {
	entry := &data.Entry{
		Name:       info.Name(),
		Dir:        dir,
		Mode:       data.FromFileMode(info.Mode()),
		Size:       info.Size(),
		ModifyTime: info.ModTime(),
	}

	switch {
	case info.IsDir():
		entry.Type = data.FileTypeDirectory
		entry.Size = 0
		entry.ContentType = data.ContentTypeDirectory
	case info.Mode()&fs.ModeSymlink != 0:
		entry.Type = data.FileTypeSymlink
		full := filepath.Join(dir, info.Name())
		if target, err := os.Readlink(full); err == nil {
			entry.Target = target
		}
		if target, err := os.Stat(full); err == nil && target.IsDir() {
			entry.TargetIsDir = true
		}
	case info.Mode().IsRegular():
		entry.Type = data.FileTypeFile
		entry.ContentType = data.GetMIMEType(info.Name())
	default:
		entry.Type = data.FileTypeOther
	}

	return entry
}

func (lb *LocalBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if !lb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	target := lb.Join(dir, newName)
	if _, err := os.Lstat(target); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "target exists"), "filename", newName)
	}

	if err := os.Rename(lb.Join(dir, oldName), target); err != nil {
		return wrap(err, "filename", newName)
	}

	return nil
}

func (lb *LocalBackend) MakeDir(ctx context.Context, parent, name string) error {
	if !lb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	if err := os.Mkdir(lb.Join(parent, name), 0o755); err != nil {
		return wrap(err, "filename", name)
	}

	return nil
}

func (lb *LocalBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	var errs data.Errors

	removed := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs.Add(err)
			break
		}

		target := lb.Join(dir, name)
		if _, err := os.Lstat(target); err != nil {
			errs.Add(wrap(err, "filename", name))
			continue
		}

		if err := os.RemoveAll(target); err != nil {
			errs.Add(wrap(err, "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (lb *LocalBackend) Exists(ctx context.Context, location string) (bool, error) {
	_, err := os.Lstat(lb.resolve(location))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, wrap(err, "path", location)
}

func (lb *LocalBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	var total int64

	for _, name := range names {
		root := lb.Join(dir, name)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			if d.Type().IsRegular() {
				info, err := d.Info()
				if err != nil {
					return err
				}
				total += info.Size()
			}

			return nil
		})
		if err != nil {
			return total, wrap(err, "path", root)
		}
	}

	return total, nil
}

func (lb *LocalBackend) Get(ctx context.Context, location string, w io.Writer) error {
	p := lb.resolve(location)

	f, err := os.Open(p)
	if err != nil {
		return wrap(err, "path", p)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return wrap(err, "path", p)
	}

	return nil
}
