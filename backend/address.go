package backend

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// Address is a parsed remote location of the form
// scheme://[user[:password]@]host[:port]/path[?query].
type Address struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     int
	Path     string
	Query    url.Values

	hasPassword bool
}

// ParseAddress splits a location into its address parts. The path is
// always cleaned and starts with a slash.
func ParseAddress(location string) (*Address, error) {
	location = strings.TrimSpace(location)
	if !strings.Contains(location, "://") {
		return nil, fmt.Errorf("failed to parse address '%s': %w", location, data.ErrMalformedAddress)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address '%s': %w", location, data.ErrMalformedAddress)
	}

	addr := &Address{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Path:   data.CleanPath(u.Path),
		Query:  u.Query(),
	}

	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("failed to parse port of '%s': %w", location, data.ErrMalformedAddress)
		}
		addr.Port = p
	}

	if u.User != nil {
		addr.User = u.User.Username()
		addr.Password, addr.hasPassword = u.User.Password()
	}

	return addr, nil
}

// HostPort returns host:port, falling back to defaultPort.
func (a *Address) HostPort(defaultPort int) string {
	port := a.Port
	if port == 0 {
		port = defaultPort
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(port))
}

// Credentials returns the user information embedded in the address, if any.
func (a *Address) Credentials() *Credentials {
	if a.User == "" && !a.hasPassword {
		return nil
	}

	return &Credentials{
		User:     a.User,
		Password: a.Password,
	}
}

// HasPassword reports whether the location carried a password.
func (a *Address) HasPassword() bool {
	return a.hasPassword
}

// Server returns scheme://[user@]host[:port] without the password.
func (a *Address) Server() string {
	var sb strings.Builder
	sb.WriteString(a.Scheme)
	sb.WriteString("://")
	if a.User != "" {
		sb.WriteString(url.PathEscape(a.User))
		sb.WriteByte('@')
	}
	sb.WriteString(a.Host)
	if a.Port != 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(a.Port))
	}

	return sb.String()
}

// Location renders the address with path p, without password or query.
func (a *Address) Location(p string) string {
	return a.Server() + data.CleanPath(p)
}

func (a *Address) String() string {
	return a.Location(a.Path)
}

// Bool reads a boolean query parameter such as "readonly".
func (a *Address) Bool(key string) bool {
	v := a.Query.Get(key)
	if v == "" {
		return a.Query.Has(key)
	}

	b, _ := strconv.ParseBool(v)
	return b
}

// PathOf returns the path of location when it points at the same server
// as a; other locations fail with ENOFS.
func (a *Address) PathOf(location string) (string, error) {
	other, err := ParseAddress(location)
	if err != nil {
		return "", nerrors.WithField(nerrors.Wrap(err, nerrors.CodeNoFilesystem, "invalid location"), "location", location)
	}

	if other.Scheme != a.Scheme || !strings.EqualFold(other.Host, a.Host) || other.Port != a.Port {
		return "", nerrors.WithField(nerrors.Code(nerrors.CodeNoFilesystem, "location belongs to '%s'", other.Server()), "location", location)
	}

	return other.Path, nil
}
