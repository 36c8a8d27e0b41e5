package ssh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const DefaultPort = 22

// SSHBackend browses a remote POSIX host by running shell commands over a
// single SSH client. Every operation opens its own session.
type SSHBackend struct {
	backend.Notifier
	backend.URLPaths

	mu      sync.Mutex
	addr    *backend.Address
	client  *ssh.Client
	creds   *backend.Credentials
	options *backend.Options
	log     *log.Logger
}

func NewSSHBackend(location string, opts ...backend.Option) (*SSHBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &SSHBackend{
		addr:    addr,
		options: options,
		log:     options.Logger.Named("ssh"),
	}, nil
}

// Factory returns a registry factory applying opts to every connection.
func Factory(opts ...backend.Option) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewSSHBackend(location, opts...)
	}
}

func (*SSHBackend) Kind() backend.Kind {
	return backend.KindSSH
}

func (sb *SSHBackend) Capabilities() *backend.Capabilities {
	return backend.GetRemoteCapabilities(sb.addr.Bool("readonly"))
}

func (sb *SSHBackend) IsConnected() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.client != nil
}

func authMethods(creds *backend.Credentials) ([]ssh.AuthMethod, error) {
	if creds.KeyFile == "" {
		return []ssh.AuthMethod{ssh.Password(creds.Password)}, nil
	}

	key, err := os.ReadFile(creds.KeyFile)
	if err != nil {
		return nil, nerrors.WithField(nerrors.FromSystem(err), "path", creds.KeyFile)
	}

	signer, err := ssh.ParsePrivateKey(key)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(creds.Password))
	}
	if err != nil {
		return nil, nerrors.WithField(nerrors.Wrap(err, nerrors.CodeNotLoggedIn, "unable to parse private key"), "path", creds.KeyFile)
	}

	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func (sb *SSHBackend) hostKeyCallback() (ssh.HostKeyCallback, error) {
	file := sb.addr.Query.Get("known_hosts")
	if file == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	callback, err := knownhosts.New(file)
	if err != nil {
		return nil, nerrors.WithField(nerrors.FromSystem(err), "path", file)
	}
	return callback, nil
}

// Login dials the host and authenticates with either a key file or a password.
func (sb *SSHBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if creds == nil {
		creds = &backend.Credentials{}
	}

	user := creds.User
	if user == "" {
		user = sb.addr.User
	}

	auth, err := authMethods(creds)
	if err != nil {
		return err
	}

	hostKeyCallback, err := sb.hostKeyCallback()
	if err != nil {
		return err
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         sb.options.Timeout,
	}

	hostPort := sb.addr.HostPort(DefaultPort)
	sb.log.Debug("Dialing '%s' as '%s'", hostPort, user)

	dialer := net.Dialer{Timeout: sb.options.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return nerrors.WithField(nerrors.FromSystem(err), "server", sb.addr.Server())
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, hostPort, config)
	if err != nil {
		conn.Close()
		return nerrors.WithField(convertHandshakeError(err), "server", sb.addr.Server())
	}
	client := ssh.NewClient(c, chans, reqs)

	sb.mu.Lock()
	if sb.client != nil {
		sb.client.Close()
	}
	sb.client = client
	sb.creds = &backend.Credentials{User: user, Password: creds.Password, KeyFile: creds.KeyFile}
	sb.mu.Unlock()

	go sb.watch(client)

	sb.log.Info("Logged in to '%s'", sb.addr.Server())
	return nil
}

// watch notifies closed handlers when the client ends without Close.
func (sb *SSHBackend) watch(client *ssh.Client) {
	err := client.Wait()

	sb.mu.Lock()
	current := sb.client == client
	if current {
		sb.client = nil
	}
	sb.mu.Unlock()

	if current {
		if err == nil {
			err = io.EOF
		}
		sb.log.Warn("Connection to '%s' lost: %v", sb.addr.Server(), err)
		sb.NotifyClosed(nerrors.Wrap(err, nerrors.CodeConnReset, "connection lost"))
	}
}

func (sb *SSHBackend) Credentials() *backend.Credentials {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.creds.Clone()
}

func (sb *SSHBackend) LoginOptions() backend.LoginOptions {
	return backend.LoginOptions{
		Server:      sb.addr.Server(),
		Credentials: backend.StoredCredentials(sb.addr, sb.options.Lookup),
	}
}

func (sb *SSHBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.client == nil {
		return nil
	}

	err := sb.client.Close()
	sb.client = nil
	return err
}

func (sb *SSHBackend) conn() (*ssh.Client, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.client == nil {
		return nil, nerrors.Code(nerrors.CodeNotLoggedIn, "not connected to '%s'", sb.addr.Server())
	}
	return sb.client, nil
}

// run executes cmd in a new session, streaming stdout into w. A non-zero
// exit status is converted from the command's stderr.
func (sb *SSHBackend) run(ctx context.Context, cmd string, w io.Writer) error {
	client, err := sb.conn()
	if err != nil {
		return err
	}

	session, err := client.NewSession()
	if err != nil {
		return nerrors.Wrap(err, nerrors.CodeConnReset, "unable to open session")
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stdout = w
	session.Stderr = &stderr

	sb.log.Debug("Running '%s'", cmd)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return nerrors.FromSystem(ctx.Err())
	}

	return convertError(err, stderr.String())
}

// output runs cmd and returns its trimmed stdout.
func (sb *SSHBackend) output(ctx context.Context, cmd string) (string, error) {
	var stdout bytes.Buffer
	if err := sb.run(ctx, cmd, &stdout); err != nil {
		return "", err
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var stderrCodes = []struct {
	pattern string
	code    string
}{
	{"no such file or directory", nerrors.CodeNotExist},
	{"not a directory", nerrors.CodeNotDir},
	{"is a directory", nerrors.CodeIsDir},
	{"permission denied", nerrors.CodeAccess},
	{"operation not permitted", nerrors.CodePerm},
	{"file exists", nerrors.CodeExist},
	{"directory not empty", nerrors.CodeNotEmpty},
	{"read-only file system", nerrors.CodeReadOnly},
	{"invalid argument", nerrors.CodeInvalid},
}

// codeOf picks the raw code from the message a coreutils command prints.
func codeOf(stderr string) string {
	lower := strings.ToLower(stderr)
	for _, c := range stderrCodes {
		if strings.Contains(lower, c.pattern) {
			return c.code
		}
	}
	return nerrors.CodeUnknown
}

func convertError(err error, stderr string) error {
	if err == nil {
		return nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = exitErr.Error()
		}
		return nerrors.Wrap(err, codeOf(msg), "%s", msg)
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) || errors.Is(err, io.EOF) {
		return nerrors.Wrap(err, nerrors.CodeConnReset, "session ended unexpectedly")
	}

	return nerrors.FromSystem(err)
}

func convertHandshakeError(err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return nerrors.Wrap(err, nerrors.CodeNotLoggedIn, "authentication failed")
	}

	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		return nerrors.Wrap(err, nerrors.CodeAccess, "host key mismatch")
	}

	return nerrors.FromSystem(err)
}
