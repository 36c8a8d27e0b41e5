package consul

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/navigator/backend"
	nerrors "github.com/mwantia/navigator/data/errors"
	"github.com/mwantia/navigator/log"
)

const DefaultPort = 8500

// ConsulBackend browses the Consul KV store.
//
// Keys are files and "/" separated prefixes are directories. Empty
// directories are kept alive by a marker key ending in "/", the same
// convention the Consul UI uses for folders. The ACL token is taken from
// the credentials' token, or their password when no token is set.
type ConsulBackend struct {
	backend.Notifier
	backend.URLPaths

	mu      sync.RWMutex
	addr    *backend.Address
	client  *api.Client
	kv      *api.KV
	creds   *backend.Credentials
	options *backend.Options
	log     *log.Logger
}

func NewConsulBackend(location string, opts ...backend.Option) (*ConsulBackend, error) {
	addr, err := backend.ParseAddress(location)
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &ConsulBackend{
		addr:    addr,
		options: options,
		log:     options.Logger.Named("consul"),
	}, nil
}

// Factory returns a registry factory applying opts to every connection.
func Factory(opts ...backend.Option) backend.Factory {
	return func(ctx context.Context, location string) (backend.Connection, error) {
		return NewConsulBackend(location, opts...)
	}
}

func (*ConsulBackend) Kind() backend.Kind {
	return backend.KindConsul
}

func (cb *ConsulBackend) Capabilities() *backend.Capabilities {
	caps := backend.GetRemoteCapabilities(cb.addr.Bool("readonly"))
	for i := range caps.Capabilities {
		if caps.Capabilities[i].Type == backend.CapabilityFetch {
			// Consul rejects values above 512KB
			caps.Capabilities[i].Params = map[string]any{"max_object_size": 512 * 1024}
		}
	}
	return caps
}

func (cb *ConsulBackend) IsConnected() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.client != nil
}

// Login creates the client, checks that the agent has a leader and that
// the token may read the KV store.
func (cb *ConsulBackend) Login(ctx context.Context, server string, creds *backend.Credentials) error {
	if creds == nil {
		creds = &backend.Credentials{}
	}

	config := api.DefaultConfig()
	config.Address = cb.addr.HostPort(DefaultPort)
	config.Scheme = "http"
	if cb.addr.Bool("ssl") {
		config.Scheme = "https"
	}
	if dc := cb.addr.Query.Get("dc"); dc != "" {
		config.Datacenter = dc
	}

	config.Token = creds.Token
	if config.Token == "" {
		config.Token = creds.Password
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nerrors.WithField(nerrors.Wrap(err, nerrors.CodeInvalid, "invalid consul address"), "server", cb.addr.Server())
	}

	if _, err := client.Status().Leader(); err != nil {
		return nerrors.WithField(convertError(err), "server", cb.addr.Server())
	}

	q := (&api.QueryOptions{}).WithContext(ctx)
	if _, _, err := client.KV().Keys("", "/", q); err != nil {
		return nerrors.WithField(convertError(err), "server", cb.addr.Server())
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.client = client
	cb.kv = client.KV()
	cb.creds = creds.Clone()

	cb.log.Info("Connected to '%s'", cb.addr.Server())
	return nil
}

func (cb *ConsulBackend) Credentials() *backend.Credentials {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.creds.Clone()
}

// LoginOptions falls back to anonymous access when nothing is stored.
func (cb *ConsulBackend) LoginOptions() backend.LoginOptions {
	creds := backend.StoredCredentials(cb.addr, cb.options.Lookup)
	if creds == nil && cb.addr.User == "" {
		creds = &backend.Credentials{}
	}

	return backend.LoginOptions{
		Server:      cb.addr.Server(),
		Credentials: creds,
	}
}

func (cb *ConsulBackend) Close(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.client = nil
	cb.kv = nil
	return nil
}

func (cb *ConsulBackend) store() (*api.KV, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.kv == nil {
		return nil, nerrors.Code(nerrors.CodeNotLoggedIn, "not connected to '%s'", cb.addr.Server())
	}
	return cb.kv, nil
}

func convertError(err error) error {
	if err == nil {
		return nil
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusNotFound:
			return nerrors.Wrap(err, nerrors.CodeNotExist, "%s", statusErr.Body)
		case http.StatusForbidden:
			return nerrors.Wrap(err, nerrors.CodeAccess, "%s", statusErr.Body)
		case http.StatusUnauthorized:
			return nerrors.Wrap(err, nerrors.CodeNotLoggedIn, "%s", statusErr.Body)
		case http.StatusServiceUnavailable:
			return nerrors.Wrap(err, nerrors.CodeServiceNotReady, "%s", statusErr.Body)
		}
	}

	return nerrors.FromSystem(err)
}
