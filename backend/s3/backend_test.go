package s3

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	nerrors "github.com/mwantia/navigator/data/errors"
)

func TestSplit(t *testing.T) {
	tests := map[string][2]string{
		"/":                 {"", ""},
		"/bucket":           {"bucket", ""},
		"/bucket/a":         {"bucket", "a"},
		"/bucket/a/b/c.txt": {"bucket", "a/b/c.txt"},
	}

	for p, expected := range tests {
		bucket, key := split(p)
		if bucket != expected[0] || key != expected[1] {
			t.Errorf("split(%q) = %q, %q", p, bucket, key)
		}
	}
}

func TestConvertError(t *testing.T) {
	normalizer := nerrors.NewNormalizer(nerrors.PlatformLinux)

	tests := map[string]nerrors.Kind{
		"NoSuchKey":             nerrors.KindNotFound,
		"NoSuchBucket":          nerrors.KindNotFound,
		"AccessDenied":          nerrors.KindPermissionDenied,
		"InvalidAccessKeyId":    nerrors.KindAuthExpired,
		"SignatureDoesNotMatch": nerrors.KindAuthExpired,
		"InvalidBucketName":     nerrors.KindInvalidFilename,
		"SlowDown":              nerrors.KindUnknown,
	}

	for code, kind := range tests {
		err := convertError(minio.ErrorResponse{Code: code, Message: code})
		if got := normalizer.Normalize(err).Kind; got != kind {
			t.Errorf("%s: expected %s, got %s", code, kind, got)
		}
	}

	if got := normalizer.Normalize(convertError(errors.New("boom"))).Kind; got != nerrors.KindUnknown {
		t.Errorf("expected Unknown for plain errors, got %s", got)
	}
}

func TestS3Backend_NotConnected(t *testing.T) {
	sb, err := NewS3Backend("s3://minio.local:9000/bucket/data")
	if err != nil {
		t.Fatalf("NewS3Backend failed: %v", err)
	}

	if sb.IsConnected() {
		t.Fatal("expected disconnected backend")
	}
	if sb.LoginOptions().HasStoredCredentials() {
		t.Error("expected no stored credentials")
	}
	if _, err := sb.Cd(t.Context(), "s3://minio.local:9000/bucket"); nerrors.CodeOf(err) != nerrors.CodeNotLoggedIn {
		t.Errorf("expected 530 before login, got %v", err)
	}
	if _, err := sb.Cd(t.Context(), "s3://elsewhere/bucket"); err == nil {
		t.Error("expected a foreign location to fail")
	}
}
