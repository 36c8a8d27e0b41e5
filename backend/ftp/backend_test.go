package ftp

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"testing"

	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
)

func TestConvertError(t *testing.T) {
	normalizer := nerrors.NewNormalizer(nerrors.PlatformLinux)

	tests := []struct {
		err  error
		kind nerrors.Kind
	}{
		{&textproto.Error{Code: 530, Msg: "Login incorrect."}, nerrors.KindAuthExpired},
		{&textproto.Error{Code: 550, Msg: "Requested action not taken."}, nerrors.KindAuthRequired},
		{&textproto.Error{Code: 550, Msg: "/pub/x: No such file or directory"}, nerrors.KindNotFound},
		{&textproto.Error{Code: 550, Msg: "Permission denied."}, nerrors.KindPermissionDenied},
		{&textproto.Error{Code: 553, Msg: "Filename not allowed"}, nerrors.KindInvalidFilename},
		{&textproto.Error{Code: 421, Msg: "Service not available"}, nerrors.KindConnectionRefused},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.err.(*textproto.Error).Code, tt.kind), func(t *testing.T) {
			if kind := normalizer.Normalize(convertError(tt.err)).Kind; kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, kind)
			}
		})
	}

	if convertError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestIsTransportError(t *testing.T) {
	if !isTransportError(io.EOF) {
		t.Error("EOF must drop the connection")
	}
	if !isTransportError(&textproto.Error{Code: 421, Msg: "Timeout"}) {
		t.Error("421 must drop the connection")
	}
	if isTransportError(&textproto.Error{Code: 550, Msg: "nope"}) {
		t.Error("550 must not drop the connection")
	}
	if isTransportError(errors.New("other")) {
		t.Error("plain errors must not drop the connection")
	}
}

func TestFTPBackend_LoginOptions(t *testing.T) {
	fb, err := NewFTPBackend("ftp://alice:pw@files.example.com/pub")
	if err != nil {
		t.Fatalf("NewFTPBackend failed: %v", err)
	}

	opts := fb.LoginOptions()
	if !opts.HasStoredCredentials() || opts.Credentials.Password != "pw" {
		t.Errorf("expected credentials from the address, got %+v", opts.Credentials)
	}
	if opts.Server != "ftp://alice@files.example.com" {
		t.Errorf("unexpected server %s", opts.Server)
	}

	lookup := backend.WithCredentialLookup(func(server string) (*backend.Credentials, bool) {
		if server == "ftp://files.example.com" {
			return &backend.Credentials{User: "bob", Password: "stored"}, true
		}
		return nil, false
	})

	fb, err = NewFTPBackend("ftp://files.example.com/pub", lookup)
	if err != nil {
		t.Fatalf("NewFTPBackend failed: %v", err)
	}
	if creds := fb.LoginOptions().Credentials; creds == nil || creds.User != "bob" {
		t.Errorf("expected credentials from the lookup, got %+v", creds)
	}

	fb, err = NewFTPBackend("ftp://other.example.com/", lookup)
	if err != nil {
		t.Fatalf("NewFTPBackend failed: %v", err)
	}
	if fb.LoginOptions().HasStoredCredentials() {
		t.Error("expected no stored credentials")
	}
	if fb.IsConnected() {
		t.Error("expected a fresh connection to be disconnected")
	}

	if _, err := fb.List(t.Context(), "ftp://other.example.com/", false); nerrors.CodeOf(err) != nerrors.CodeNotLoggedIn {
		t.Errorf("expected 530 before login, got %v", err)
	}
}
