package backend

import (
	"time"

	"github.com/mwantia/navigator/log"
)

// Options are shared by the factories of network backends.
type Options struct {
	// Lookup resolves stored credentials by server identity.
	Lookup CredentialLookup
	// Timeout bounds dialing and single requests.
	Timeout time.Duration
	Logger  *log.Logger
}

type Option func(*Options) error

func NewDefaultOptions() *Options {
	return &Options{
		Lookup: func(string) (*Credentials, bool) {
			return nil, false
		},
		Timeout: 30 * time.Second,
		Logger:  log.Discard(),
	}
}

func WithCredentialLookup(lookup CredentialLookup) Option {
	return func(o *Options) error {
		if lookup != nil {
			o.Lookup = lookup
		}
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		o.Timeout = timeout
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *Options) error {
		if logger != nil {
			o.Logger = logger
		}
		return nil
	}
}

// ApplyOptions builds Options from the defaults and opts.
func ApplyOptions(opts ...Option) (*Options, error) {
	options := NewDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return options, nil
}

// StoredCredentials picks the credentials a connection can log in with
// without asking: those embedded in the address win over the lookup.
// An address naming a user without a password asks unless the lookup
// knows that user.
func StoredCredentials(addr *Address, lookup CredentialLookup) *Credentials {
	if addr.HasPassword() {
		return addr.Credentials()
	}

	if lookup != nil {
		if creds, ok := lookup(addr.Server()); ok && creds != nil {
			if addr.User == "" || creds.User == "" || creds.User == addr.User {
				if creds.User == "" {
					creds = creds.Clone()
					creds.User = addr.User
				}
				return creds
			}
		}
	}

	return nil
}
