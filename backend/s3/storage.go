package s3

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

const directoryContentType = "application/x-directory"

func notFound(p string) error {
	return nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "no such file or directory"), "path", p)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

// stat reports whether p is a directory or a file and fails when it is missing.
func (sb *S3Backend) stat(ctx context.Context, client *minio.Client, p string) (bool, *minio.ObjectInfo, error) {
	bucket, key := split(p)
	if bucket == "" {
		return true, nil, nil
	}

	if key == "" {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return false, nil, convertError(err)
		}
		if !exists {
			return false, nil, notFound(p)
		}
		return true, nil, nil
	}

	info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return false, &info, nil
	}
	if !isNotFound(err) {
		return false, nil, convertError(err)
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{
		Prefix:  key + "/",
		MaxKeys: 1,
	}) {
		if obj.Err != nil {
			return false, nil, convertError(obj.Err)
		}
		return true, nil, nil
	}

	return false, nil, notFound(p)
}

func (sb *S3Backend) Cd(ctx context.Context, location string) (string, error) {
	client, err := sb.conn()
	if err != nil {
		return "", err
	}
	p, err := sb.addr.PathOf(location)
	if err != nil {
		return "", err
	}

	isDir, _, err := sb.stat(ctx, client, p)
	if err != nil {
		return "", nerrors.WithField(err, "path", p)
	}
	if !isDir {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	return sb.addr.Location(p), nil
}

func (sb *S3Backend) List(ctx context.Context, location string, includeParent bool) ([]*data.Entry, error) {
	client, err := sb.conn()
	if err != nil {
		return nil, err
	}
	p, err := sb.addr.PathOf(location)
	if err != nil {
		return nil, err
	}

	isDir, _, err := sb.stat(ctx, client, p)
	if err != nil {
		return nil, nerrors.WithField(err, "path", p)
	}
	if !isDir {
		return nil, nerrors.WithField(nerrors.Code(nerrors.CodeNotDir, "not a directory"), "path", p)
	}

	dir := sb.addr.Location(p)
	var entries []*data.Entry
	if includeParent && p != "/" {
		entries = append(entries, data.NewParentEntry(dir))
	}

	bucket, key := split(p)
	if bucket == "" {
		buckets, err := client.ListBuckets(ctx)
		if err != nil {
			return nil, nerrors.WithField(convertError(err), "path", p)
		}

		for _, b := range buckets {
			entries = append(entries, &data.Entry{
				Name:        b.Name,
				Dir:         dir,
				Type:        data.FileTypeDirectory,
				Mode:        data.ModeDir | 0o755,
				ModifyTime:  b.CreationDate,
				ContentType: data.ContentTypeDirectory,
			})
		}
		return entries, nil
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, nerrors.WithField(convertError(obj.Err), "path", p)
		}
		if obj.Key == prefix {
			continue
		}

		name := strings.TrimPrefix(obj.Key, prefix)
		if strings.HasSuffix(name, "/") {
			entries = append(entries, &data.Entry{
				Name:        strings.TrimSuffix(name, "/"),
				Dir:         dir,
				Type:        data.FileTypeDirectory,
				Mode:        data.ModeDir | 0o755,
				ModifyTime:  obj.LastModified,
				ContentType: data.ContentTypeDirectory,
			})
			continue
		}

		entries = append(entries, &data.Entry{
			Name:        name,
			Dir:         dir,
			Type:        data.FileTypeFile,
			Mode:        0o644,
			Size:        obj.Size,
			ModifyTime:  obj.LastModified,
			ContentType: data.GetMIMEType(name),
		})
	}

	return entries, nil
}

// objects returns every object at or below p.
func (sb *S3Backend) objects(ctx context.Context, client *minio.Client, p string) ([]minio.ObjectInfo, error) {
	bucket, key := split(p)

	var objects []minio.ObjectInfo
	if key != "" {
		if info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err == nil {
			objects = append(objects, info)
			return objects, nil
		}
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, convertError(obj.Err)
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

func (sb *S3Backend) Rename(ctx context.Context, dir, oldName, newName string) error {
	if !sb.IsDirectoryNameValid(newName) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", newName)
	}

	client, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.addr.PathOf(dir)
	if err != nil {
		return err
	}

	bucket, key := split(data.JoinPath(p, oldName))
	if key == "" {
		return nerrors.WithField(nerrors.Code(nerrors.CodeUnsupported, "buckets cannot be renamed"), "filename", newName)
	}
	_, newKey := split(data.JoinPath(p, newName))

	if _, _, err := sb.stat(ctx, client, data.JoinPath(p, newName)); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", newName)
	}

	objects, err := sb.objects(ctx, client, data.JoinPath(p, oldName))
	if err != nil {
		return nerrors.WithField(err, "filename", newName)
	}
	if len(objects) == 0 {
		return nerrors.WithField(notFound(data.JoinPath(p, oldName)), "filename", newName)
	}

	for _, obj := range objects {
		target := newKey + strings.TrimPrefix(obj.Key, key)
		if _, err := client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: bucket, Object: target},
			minio.CopySrcOptions{Bucket: bucket, Object: obj.Key},
		); err != nil {
			return nerrors.WithField(convertError(err), "filename", newName)
		}
		if err := client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return nerrors.WithField(convertError(err), "filename", newName)
		}
	}

	return nil
}

func (sb *S3Backend) MakeDir(ctx context.Context, parent, name string) error {
	if !sb.IsDirectoryNameValid(name) {
		return nerrors.WithField(nerrors.Code(nerrors.CodeBadName, "invalid name"), "filename", name)
	}

	client, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.addr.PathOf(parent)
	if err != nil {
		return err
	}

	bucket, key := split(data.JoinPath(p, name))
	if key == "" {
		err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		return nerrors.WithField(convertError(err), "filename", name)
	}

	if _, _, err := sb.stat(ctx, client, data.JoinPath(p, name)); err == nil {
		return nerrors.WithField(nerrors.Code(nerrors.CodeExist, "file exists"), "filename", name)
	}

	_, err = client.PutObject(ctx, bucket, key+"/", bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: directoryContentType,
	})
	return nerrors.WithField(convertError(err), "filename", name)
}

func (sb *S3Backend) Delete(ctx context.Context, dir string, names []string) (int, error) {
	client, err := sb.conn()
	if err != nil {
		return 0, err
	}
	p, err := sb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	var errs data.Errors
	removed := 0
	for _, name := range names {
		target := data.JoinPath(p, name)
		if _, _, err := sb.stat(ctx, client, target); err != nil {
			errs.Add(nerrors.WithField(err, "filename", name))
			continue
		}

		if err := sb.remove(ctx, client, target); err != nil {
			errs.Add(nerrors.WithField(err, "filename", name))
			continue
		}
		removed++
	}

	return removed, errs.Errors()
}

func (sb *S3Backend) remove(ctx context.Context, client *minio.Client, p string) error {
	bucket, key := split(p)

	objects, err := sb.objects(ctx, client, p)
	if err != nil {
		return err
	}

	for _, obj := range objects {
		if err := client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return convertError(err)
		}
	}

	if key == "" {
		return convertError(client.RemoveBucket(ctx, bucket))
	}
	return nil
}

func (sb *S3Backend) Exists(ctx context.Context, location string) (bool, error) {
	client, err := sb.conn()
	if err != nil {
		return false, err
	}
	p, err := sb.addr.PathOf(location)
	if err != nil {
		return false, err
	}

	_, _, err = sb.stat(ctx, client, p)
	if nerrors.CodeOf(err) == nerrors.CodeNotExist {
		return false, nil
	}

	return err == nil, err
}

func (sb *S3Backend) Size(ctx context.Context, dir string, names []string) (int64, error) {
	client, err := sb.conn()
	if err != nil {
		return 0, err
	}
	p, err := sb.addr.PathOf(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, name := range names {
		objects, err := sb.objects(ctx, client, data.JoinPath(p, name))
		if err != nil {
			return total, nerrors.WithField(err, "filename", name)
		}
		for _, obj := range objects {
			total += obj.Size
		}
	}

	return total, nil
}

func (sb *S3Backend) Get(ctx context.Context, location string, w io.Writer) error {
	client, err := sb.conn()
	if err != nil {
		return err
	}
	p, err := sb.addr.PathOf(location)
	if err != nil {
		return err
	}

	bucket, key := split(p)
	if key == "" {
		return nerrors.WithField(nerrors.Code(nerrors.CodeIsDir, "is a directory"), "path", p)
	}

	object, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nerrors.WithField(convertError(err), "path", p)
	}
	defer object.Close()

	if _, err := io.Copy(w, object); err != nil {
		return nerrors.WithField(convertError(err), "path", p)
	}

	return nil
}
