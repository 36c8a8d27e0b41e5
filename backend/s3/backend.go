package s3

import (
	"context"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

const DefaultPort = 9000

// S3Backend browses an S3 compatible endpoint. The root lists buckets,
// every bucket is a top level directory and key prefixes are directories.
//
// Locations have the form s3://endpoint[:port]/bucket/key?ssl=true.
// The access key is the user, the secret key the password.
type S3Backend struct {
	backend.Notifier
	backend.URLPaths

	mu      sync.RWMutex
	addr    *backend.Address
	client  *minio.Client
	creds   *backend.Credentials
	options *backend.Options
	log     *log.Logger
}

func NewS3Backend(location string, opts ...backend.Option) (*S3Backend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		addr:    addr,
		options: options,
		log:     options.Logger.Named("s3"),
	}, nil
}

// Factory returns a registry factory applying opts to every connection.
func Factory(opts ...backend.Option) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewS3Backend(location, opts...)
	}
}

func (*S3Backend) Kind() backend.Kind {
	return backend.KindS3
}

func (sb *S3Backend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(sb.addr.Bool("readonly"))
}

func (sb *S3Backend) IsConnected() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	return sb.client != nil
}

// Login creates the client and verifies the keys against the endpoint.
func (sb *S3Backend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if creds == nil {
		creds = &backend.Credentials{}
	}

	client, err := minio.New(sb.addr.HostPort(DefaultPort), &minio.Options{
		Creds:  credentials.NewStaticV4(creds.User, creds.Password, creds.Token),
		Secure: sb.addr.Bool("ssl"),
	})
	if err != nil {
		return nerrors.WithField(nerrors.Wrap(err, nerrors.CodeInvalid, "invalid endpoint"), "server", sb.addr.Server())
	}

	loginCtx, cancel := context.WithTimeout(ctx, sb.options.Timeout)
	defer cancel()

	// Restricted keys may not list buckets; check the bucket in the location instead
	if bucket, _ := split(sb.addr.Path); bucket != "" {
		exists, err := client.BucketExists(loginCtx, bucket)
		if err != nil {
			return nerrors.WithField(convertError(err), "server", sb.addr.Server())
		}
		if !exists {
			return nerrors.WithField(nerrors.Code(nerrors.CodeNotExist, "bucket '%s' does not exist", bucket), "path", "/"+bucket)
		}
	} else if _, err := client.ListBuckets(loginCtx); err != nil {
		return nerrors.WithField(convertError(err), "server", sb.addr.Server())
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.client = client
	sb.creds = creds.Clone()

	sb.log.Info("Connected to '%s'", sb.addr.Server())
	return nil
}

func (sb *S3Backend) Credentials() *backend.Credentials {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	return sb.creds.Clone()
}

func (sb *S3Backend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      sb.addr.Server(),
		Credentials: backend.StoredCredentials(sb.addr, sb.options.Lookup),
	}
}

func (sb *S3Backend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.client = nil
	return nil
}

func (sb *S3Backend) conn() (*minio.Client, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.client == nil {
		return nil, nerrors.Code(nerrors.CodeNotLoggedIn, "not connected to '%s'", sb.addr.Server())
	}
	return sb.client, nil
}

// split turns a path into bucket and object key.
func split(p string) (string, string) {
	p = strings.TrimPrefix(p, "/")
	bucket, key, _ := strings.Cut(p, "/")
	return bucket, key
}

var errorCodes = map[string]string{
	"NoSuchKey":               nerrors.CodeNotExist,
	"NoSuchBucket":            nerrors.CodeNotExist,
	"AccessDenied":            nerrors.CodeAccess,
	"AllAccessDisabled":       nerrors.CodeAccess,
	"InvalidAccessKeyId":      nerrors.CodeNotLoggedIn,
	"SignatureDoesNotMatch":   nerrors.CodeNotLoggedIn,
	"ExpiredToken":            nerrors.CodeNotLoggedIn,
	"BucketAlreadyExists":     nerrors.CodeExist,
	"BucketAlreadyOwnedByYou": nerrors.CodeExist,
	"InvalidBucketName":       nerrors.CodeBadName,
	"InvalidObjectName":       nerrors.CodeBadName,
	"XMinioInvalidObjectName": nerrors.CodeBadName,
	"BucketNotEmpty":          nerrors.CodeNotEmpty,
}

func convertError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return nerrors.FromSystem(err)
	}

	if code, ok := errorCodes[resp.Code]; ok {
		return nerrors.Wrap(err, code, "%s", resp.Message)
	}

	return nerrors.Wrap(err, resp.Code, "%s", resp.Message)
}
