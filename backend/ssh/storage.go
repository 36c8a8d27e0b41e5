package ssh

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// listFormat prints type, target type, mode, size, mtime, link target and name.
const listFormat = `%y\t%Y\t%m\t%s\t%T@\t%l\t%f\n`

func (sb *SSHBackend) path(location string) (string, error) {
	return sb.addr.PathOf(location)
}

func (sb *SSHBackend) writable() error {
	if sb.addr.Bool("readonly") {
		return nerrors.Code(nerrors.CodeReadOnly, "'%s' is readonly", sb.addr.Server())
	}
	return nil
}

// enterDir changes into p and reports failures in coreutils wording,
// since shells disagree on the message of a failing cd.
func enterDir(p string) string {
	q := quote(p)
	return fmt.Sprintf("if ! test -e %[1]s; then echo 'No such file or directory' >&2; exit 1; fi; "+
		"if ! test -d %[1]s; then echo 'Not a directory' >&2; exit 1; fi; "+
		"cd -- %[1]s 2>/dev/null || { echo 'Permission denied' >&2; exit 1; }", q)
}

func (sb *SSHBackend) Cd(ctx context.Context, location string) (string, error) {
	p, err := sb.path(location)
	if err != nil {
		return "", err
	}

	out, err := sb.output(ctx, enterDir(p)+" && pwd")
	if err != nil {
		return "", nerrors.WithField(err, "path", p)
	}

	return sb.addr.Location(out), nil
}

func (sb *SSHBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	p, err := sb.path(location)
	if err != nil {
		return nil, err
	}

	out, err := sb.output(ctx, enterDir(p)+" && find . -mindepth 1 -maxdepth 1 -printf '"+listFormat+"'")
	if err != nil {
		return nil, nerrors.WithField(err, "path", p)
	}

	dir := sb.addr.Location(p)
	var entries []*data.Entry
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if entry := parseEntry(dir, line); entry != nil {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// parseEntry converts one line printed with listFormat.
func parseEntry(dir, line string) *data.Entry {
	fields := strings.SplitN(line, "\t", 7)
	if len(fields) != 7 {
		return nil
	}

	mode, _ := strconv.ParseUint(fields[2], 8, 32)
	size, _ := strconv.ParseInt(fields[3], 10, 64)
	mtime, _ := strconv.ParseFloat(fields[4], 64)

	entry := &data.Entry{
		Name:       fields[6],
		Dir:        dir,
		Mode:       data.FileMode(mode),
		Size:       size,
		ModifyTime: time.Unix(int64(mtime), 0),
	}

	switch fields[0] {
	case "d":
		entry.Type = data.FileTypeDirectory
		entry.Mode |= data.ModeDir
		entry.ContentType = data.ContentTypeDirectory
	case "l":
		entry.Type = data.FileTypeSymlink
		entry.Mode |= data.ModeSymlink
		entry.Target = fields[5]
		entry.TargetIsDir = fields[1] == "d"
		if entry.TargetIsDir {
			entry.ContentType = data.ContentTypeDirectory
		} else {
			entry.ContentType = data.GetMIMEType(entry.Name)
		}
	default:
		entry.Type = data.FileTypeFile
		entry.ContentType = data.GetMIMEType(entry.Name)
	}

	return entry
}

func (sb *SSHBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if err := sb.writable(); err != nil {
		return err
	}
	if !sb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	p, err := sb.path(dir)
	if err != nil {
		return err
	}

	oldPath, newPath := quote(data.JoinPath(p, oldName)), quote(data.JoinPath(p, newName))
	cmd := fmt.Sprintf("if test -e %[2]s; then echo 'File exists' >&2; exit 1; fi; mv -- %[1]s %[2]s", oldPath, newPath)

	if _, err := sb.output(ctx, cmd); err != nil {
		return nerrors.WithField(err, "filename", newName)
	}
	return nil
}

func (sb *SSHBackend) MakeDir(ctx context.Context, parent, name string) error {
	if err := sb.writable(); err != nil {
		return err
	}
	if !sb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	p, err := sb.path(parent)
	if err != nil {
		return err
	}

	if _, err := sb.output(ctx, "mkdir -- "+quote(data.JoinPath(p, name))); err != nil {
		return nerrors.WithField(err, "filename", name)
	}
	return nil
}

func (sb *SSHBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	if err := sb.writable(); err != nil {
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

		q := quote(full)
		cmd := fmt.Sprintf("if ! test -e %[1]s && ! test -L %[1]s; then echo 'No such file or directory' >&2; exit 1; fi; rm -rf -- %[1]s", q)
		if _, err := sb.output(ctx, cmd); err != nil {
			errs.Add(nerrors.WithField(err, "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (sb *SSHBackend) Exists(ctx context.Context, location string) (bool, error) {
	p, err := sb.path(location)
	if err != nil {
		return false, err
	}

	out, err := sb.output(ctx, fmt.Sprintf("if test -e %s; then echo yes; else echo no; fi", quote(p)))
	if err != nil {
		return false, nerrors.WithField(err, "path", p)
	}

	return out == "yes", nil
}

func (sb *SSHBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	p, err := sb.path(dir)
	if err != nil {
		return 0, err
	}

	args := make([]string, 0, len(names))
	for _, name := range names {
		args = append(args, quote(data.JoinPath(p, name)))
	}

	out, err := sb.output(ctx, "du -sb -- "+strings.Join(args, " "))
	if err != nil {
		return 0, nerrors.WithField(err, "path", p)
	}

	var total int64
	for _, line := range strings.Split(out, "\n") {
		field, _, _ := strings.Cut(line, "\t")
		size, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			continue
		}
		total += size
	}

	return total, nil
}

func (sb *SSHBackend) Get(ctx context.Context, location string, w io.Writer) error {
	p, err := sb.path(location)
	if err != nil {
		return err
	}

	if err := sb.run(ctx, "cat -- "+quote(p), w); err != nil {
		return nerrors.WithField(err, "path", p)
	}
	return nil
}
