package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"testing"

	perrors "github.com/jmgilman/go/errors"
)

func TestNormalizer_CodeMapping(t *testing.T) {
	tests := []struct {
		code string
		kind Kind
	}{
		{CodeHostNotFound, KindHostNotFound},
		{CodeConnRefused, KindConnectionRefused},
		{CodeNotExist, KindNotFound},
		{CodePerm, KindPermissionDenied},
		{CodeAccess, KindPermissionDenied},
		{CodeBadName, KindInvalidFilename},
		{CodeNotLoggedIn, KindAuthExpired},
		{CodeActionNotTaken, KindAuthRequired},
		{CodeNotDir, KindCannotReadFolder},
		{CodeNoFilesystem, KindNoFilesystemForLocation},
		{string(perrors.CodeNotFound), KindNotFound},
		{"E_SOMETHING_ELSE", KindUnknown},
	}

	n := NewNormalizer(PlatformLinux)
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := n.Normalize(Code(tt.code, "failure"))
			if err.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, err.Kind)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, err.Code)
			}
			if err.MessageKey != tt.kind.MessageKey() {
				t.Errorf("expected message key %q, got %q", tt.kind.MessageKey(), err.MessageKey)
			}
		})
	}
}

func TestNormalizer_UnknownWithoutCode(t *testing.T) {
	n := NewNormalizer(PlatformLinux)

	err := n.Normalize(fmt.Errorf("plain failure"))
	if err.Kind != KindUnknown {
		t.Fatalf("expected Unknown, got %s", err.Kind)
	}
	if err.Code != CodeUnknown {
		t.Errorf("expected code UNKNOWN, got %q", err.Code)
	}
	if err.MessageKey != "error.unknown" {
		t.Errorf("unexpected message key %q", err.MessageKey)
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer(PlatformLinux)

	first := n.Normalize(Code(CodeNotExist, "missing"))
	second := n.Normalize(fmt.Errorf("wrapped: %w", first))
	if first != second {
		t.Fatal("normalizing a normalized error must return it unchanged")
	}
}

func TestNormalizer_Params(t *testing.T) {
	n := NewNormalizer(PlatformLinux)

	raw := WithField(Code(CodeNotExist, "missing"), "path", "/tmp/a.txt")
	err := n.Normalize(raw)
	if got := err.Param("path"); got != "/tmp/a.txt" {
		t.Errorf("expected path param, got %q", got)
	}
	if got := err.Param("message"); got != "missing" {
		t.Errorf("expected message param, got %q", got)
	}
}

func TestNormalizer_InvalidFilenameHintDependsOnPlatform(t *testing.T) {
	raw := WithField(Code(CodeBadName, "bad name"), "filename", "a:b")

	linux := NewNormalizer(PlatformLinux).Normalize(raw)
	windows := NewNormalizer(PlatformWindows).Normalize(raw)

	if linux.Param("allowed") == "" || windows.Param("allowed") == "" {
		t.Fatal("expected an allowed-character hint")
	}
	if linux.Param("allowed") == windows.Param("allowed") {
		t.Errorf("expected different hints, both got %q", linux.Param("allowed"))
	}
	if windows.Param("filename") != "a:b" {
		t.Errorf("expected filename param, got %q", windows.Param("filename"))
	}
}

func TestNormalizer_SystemErrors(t *testing.T) {
	n := NewNormalizer(PlatformLinux)

	_, err := os.Stat(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected stat error")
	}
	if got := n.Normalize(err); got.Kind != KindNotFound || got.Code != CodeNotExist {
		t.Errorf("expected NotFound/ENOENT, got %s/%s", got.Kind, got.Code)
	}

	dns := &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}
	if got := n.Normalize(dns); got.Kind != KindHostNotFound {
		t.Errorf("expected HostNotFound, got %s", got.Kind)
	}

	if got := n.Normalize(fmt.Errorf("open: %w", fs.ErrPermission)); got.Kind != KindPermissionDenied {
		t.Errorf("expected PermissionDenied, got %s", got.Kind)
	}
}

func TestError_IsSentinel(t *testing.T) {
	n := NewNormalizer(PlatformLinux)

	err := error(n.Normalize(Code(CodeNotLoggedIn, "login required")))
	if !errors.Is(err, ErrAuthExpired) {
		t.Error("expected errors.Is to match ErrAuthExpired")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("did not expect errors.Is to match ErrNotFound")
	}

	var ne *Error
	if !errors.As(fmt.Errorf("ctx: %w", err), &ne) {
		t.Fatal("expected errors.As to find *Error")
	}
	if !ne.Kind.IsAuth() {
		t.Error("expected auth kind")
	}
}

func TestNormalizer_New(t *testing.T) {
	n := NewNormalizer(PlatformDarwin)

	err := n.New(KindNoFilesystemForLocation, map[string]string{"location": "zz://x"})
	if err.Kind != KindNoFilesystemForLocation {
		t.Fatalf("unexpected kind %s", err.Kind)
	}
	if err.Param("location") != "zz://x" {
		t.Errorf("expected location param, got %q", err.Param("location"))
	}
}

func TestParsePlatform(t *testing.T) {
	if ParsePlatform("windows") != PlatformWindows {
		t.Error("windows not recognised")
	}
	if ParsePlatform("darwin") != PlatformDarwin {
		t.Error("darwin not recognised")
	}
	if ParsePlatform("freebsd") != PlatformLinux {
		t.Error("unknown systems should default to linux")
	}
}
