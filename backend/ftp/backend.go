package ftp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"

	"github.com/jlaffaye/ftp"
	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

const DefaultPort = 21

// FTPBackend is a connection to a single FTP server. All commands share one
// control connection and are serialized.
type FTPBackend struct {
	backend.Notifier
	backend.URLPaths

	mu      sync.Mutex
	addr    *backend.Address
	conn    *ftp.ServerConn
	creds   *backend.Credentials
	options *backend.Options
	log     *log.Logger
}

func NewFTPBackend(location string, opts ...backend.Option) (*FTPBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &FTPBackend{
		addr:    addr,
		options: options,
		log:     options.Logger.Named("ftp"),
	}, nil
}

// Factory returns a registry factory applying opts to every connection.
func Factory(opts ...backend.Option) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewFTPBackend(location, opts...)
	}
}

func (*FTPBackend) Kind() backend.Kind {
	return backend.KindFTP
}

func (fb *FTPBackend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(fb.addr.Bool("readonly"))
}

func (fb *FTPBackend) IsConnected() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return fb.conn != nil
}

func (fb *FTPBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if creds == nil {
		creds = &backend.Credentials{}
	}

	user := creds.User
	if user == "" {
		user = fb.addr.User
	}
	if user == "" {
		user = "anonymous"
	}

	hostPort := fb.addr.HostPort(DefaultPort)
	fb.log.Debug("Dialing '%s' as '%s'", hostPort, user)

	conn, err := ftp.Dial(hostPort,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(fb.options.Timeout),
	)
	if err != nil {
		return nerrors.WithField(convertError(err), "server", fb.addr.Server())
	}

	if err := conn.Login(user, creds.Password); err != nil {
		conn.Quit()
		return nerrors.WithField(convertError(err), "server", fb.addr.Server())
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.conn != nil {
		fb.conn.Quit()
	}
	fb.conn = conn
	fb.creds = &backend.Credentials{User: user, Password: creds.Password}

	fb.log.Info("Logged in to '%s'", fb.addr.Server())
	return nil
}

func (fb *FTPBackend) Credentials() *backend.Credentials {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return fb.creds.Clone()
}

func (fb *FTPBackend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      fb.addr.Server(),
		Credentials: backend.StoredCredentials(fb.addr, fb.options.Lookup),
	}
}

func (fb *FTPBackend) Close(ctx context.Context) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.conn == nil {
		return nil
	}

	err := fb.conn.Quit()
	fb.conn = nil
	return err
}

// do runs fn on the control connection. A transport failure drops the
// connection and notifies closed handlers once the lock is released.
func (fb *FTPBackend) do(fn func(conn *ftp.ServerConn) error) error {
	fb.mu.Lock()
	if fb.conn == nil {
		fb.mu.Unlock()
		return nerrors.Code(nerrors.CodeNotLoggedIn, "not connected to '%s'", fb.addr.Server())
	}

	err := fn(fb.conn)
	dropped := err != nil && isTransportError(err)
	if dropped {
		fb.conn.Quit()
		fb.conn = nil
	}
	fb.mu.Unlock()

	if dropped {
		fb.log.Warn("Connection to '%s' lost: %v", fb.addr.Server(), err)
		fb.NotifyClosed(err)
	}

	return convertError(err)
}

func isTransportError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusNotAvailable
	}

	return false
}

// convertError maps FTP replies onto raw codes. A 550 reply stays 550
// unless its message tells a missing file or a permission problem apart.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return nerrors.FromSystem(err)
	}

	code := strconv.Itoa(protoErr.Code)
	if protoErr.Code == ftp.StatusFileUnavailable {
		msg := strings.ToLower(protoErr.Msg)
		switch {
		case strings.Contains(msg, "no such file"), strings.Contains(msg, "not found"), strings.Contains(msg, "does not exist"):
			code = nerrors.CodeNotExist
		case strings.Contains(msg, "not a directory"):
			code = nerrors.CodeNotDir
		case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
			code = nerrors.CodeAccess
		case strings.Contains(msg, "file exists"), strings.Contains(msg, "already exists"):
			code = nerrors.CodeExist
		}
	}

	return nerrors.Wrap(err, code, "%s", protoErr.Msg)
}
