package consul

import (
	"context"
	"io"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// buildKey constructs the Consul KV key for a path
func buildKey(p string) string {
	return strings.TrimPrefix(data.CleanPath(p), "/")
}

func prefixOf(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func notFound(p string) error {
	return nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "path", p)
}

// stat reports whether p is a directory. Missing paths fail with ENOENT.
func (cb *ConsulBackend) stat(ctx context.Context, kv *api.KV, p string) (bool, *api.KVPair, error) {
	key := buildKey(p)
	if key == "" {
		return true, nil, nil
	}

	q := (&api.QueryOptions{}).WithContext(ctx)
	pair, _, err := kv.Get(key, q)
	if err != nil {
		return false, nil, convertError(err)
	}
	if pair != nil {
		return false, pair, nil
	}

	keys, _, err := kv.Keys(prefixOf(key), "", q)
	if err != nil {
		return false, nil, convertError(err)
	}
	if len(keys) > 0 {
		return true, nil, nil
	}

	return false, nil, notFound(p)
}

func (cb *ConsulBackend) Cd(ctx context.Context, location string) (string, error) {
	kv, err := cb.store()
	if err != nil {
		return "", err
	}
	p, err := cb.addr.PathOf(location)
	if err != nil {
		return "", err
	}

	isDir, _, err := cb.stat(ctx, kv, p)
	if err != nil {
		return "", err
	}
	if !isDir {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	return cb.addr.Location(p), nil
}

func (cb *ConsulBackend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	kv, err := cb.store()
	if err != nil {
		return nil, err
	}
	p, err := cb.addr.PathOf(location)
	if err != nil {
		return nil, err
	}

	isDir, _, err := cb.stat(ctx, kv, p)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	prefix := prefixOf(buildKey(p))
	pairs, _, err := kv.List(prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, nerrors.WithField(convertError(err), "path", p)
	}

	dir := cb.addr.Location(p)
	var entries []*data.Entry
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	seen := make(map[string]bool)
	for _, pair := range pairs {
		rest := strings.TrimPrefix(pair.Key, prefix)
		if rest == "" {
			continue
		}

		if name, _, nested := strings.Cut(rest, "/"); nested {
			if seen[name] {
				continue
			}
			seen[name] = true
			entries = append(entries, &data.Entry{
				Name:        name,
				Dir:         dir,
				Type:        data.FileTypeDirectory,
				Mode:        data.ModeDir | 0o755,
				ContentType: data.ContentTypeDirectory,
			})
			continue
		}

		entries = append(entries, &data.Entry{
			Name:        rest,
			Dir:         dir,
			Type:        data.FileTypeFile,
			Mode:        0o644,
			Size:        int64(len(pair.Value)),
			ContentType: data.GetMIMEType(rest),
		})
	}

	return entries, nil
}

func (cb *ConsulBackend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if !cb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	kv, err := cb.store()
	if err != nil {
		return err
	}
	p, err := cb.addr.PathOf(dir)
	if err != nil {
		return err
	}

	oldPath, newPath := data.JoinPath(p, oldName), data.JoinPath(p, newName)
	isDir, pair, err := cb.stat(ctx, kv, oldPath)
	if err != nil {
		return nerrors.WithField(err, "filename", newName)
	}
	if _, _, err := cb.stat(ctx, kv, newPath); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", newName)
	}

	w := (&api.WriteOptions{}).WithContext(ctx)
	oldKey, newKey := buildKey(oldPath), buildKey(newPath)

	if !isDir {
		if _, err := kv.Put(&api.KVPair{Key: newKey, Value: pair.Value, Flags: pair.Flags}, w); err != nil {
			return nerrors.WithField(convertError(err), "filename", newName)
		}
		_, err := kv.Delete(oldKey, w)
		return nerrors.WithField(convertError(err), "filename", newName)
	}

	pairs, _, err := kv.List(prefixOf(oldKey), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nerrors.WithField(convertError(err), "filename", newName)
	}

	for _, child := range pairs {
		moved := &api.KVPair{
			Key:   newKey + strings.TrimPrefix(child.Key, oldKey),
			Value: child.Value,
			Flags: child.Flags,
		}
		if _, err := kv.Put(moved, w); err != nil {
			return nerrors.WithField(convertError(err), "filename", newName)
		}
	}

	_, err = kv.DeleteTree(prefixOf(oldKey), w)
	return nerrors.WithField(convertError(err), "filename", newName)
}

func (cb *ConsulBackend) MakeDir(ctx context.Context, parent, name string) error {
	if !cb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	kv, err := cb.store()
	if err != nil {
		return err
	}
	p, err := cb.addr.PathOf(parent)
	if err != nil {
		return err
	}

	if isDir, _, err := cb.stat(ctx, kv, p); err != nil {
		return err
	} else if !isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	target := data.JoinPath(p, name)
	if _, _, err := cb.stat(ctx, kv, target); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", name)
	}

	_, err = kv.Put(&api.KVPair{Key: prefixOf(buildKey(target))}, (&api.WriteOptions{}).WithContext(ctx))
	return nerrors.WithField(convertError(err), "filename", name)
}

func (cb *ConsulBackend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	kv, err := cb.store()
	if err != nil {
		return 0, err
	}
	p, err := cb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	w := (&api.WriteOptions{}).WithContext(ctx)

	var errs data.Errors
	removed := 0
	for _, name := range names {
		target := data.JoinPath(p, name)
		isDir, _, err := cb.stat(ctx, kv, target)
		if err != nil {
			errs.Add(nerrors.WithField(err, "filename", name))
			continue
		}

		key := buildKey(target)
		if isDir {
			_, err = kv.DeleteTree(prefixOf(key), w)
		} else {
			_, err = kv.Delete(key, w)
		}
		if err != nil {
			errs.Add(nerrors.WithField(convertError(err), "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (cb *ConsulBackend) Exists(ctx context.Context, location string) (bool, error) {
	kv, err := cb.store()
	if err != nil {
		return false, err
	}
	p, err := cb.addr.PathOf(location)
	if err != nil {
		return false, err
	}

	_, _, err = cb.stat(ctx, kv, p)
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}

	return err == nil, err
}

func (cb *ConsulBackend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	kv, err := cb.store()
	if err != nil {
		return 0, err
	}
	p, err := cb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		target := data.JoinPath(p, name)
		isDir, pair, err := cb.stat(ctx, kv, target)
		if err != nil {
			return total, nerrors.WithField(err, "filename", name)
		}

		if !isDir {
			total += int64(len(pair.Value))
			continue
		}

		pairs, _, err := kv.List(prefixOf(buildKey(target)), (&api.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return total, nerrors.WithField(convertError(err), "filename", name)
		}
		for _, child := range pairs {
			total += int64(len(child.Value))
		}
	}

	return total, nil
}

func (cb *ConsulBackend) Get(ctx context.Context, location string, w io.Writer) error {
	kv, err := cb.store()
	if err != nil {
		return err
	}
	p, err := cb.addr.PathOf(location)
	if err != nil {
		return err
	}

	isDir, pair, err := cb.stat(ctx, kv, p)
	if err != nil {
		return err
	}
	if isDir {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}

	_, err = w.Write(pair.Value)
	return err
}
