package backend

// Credentials used to authenticate against a server.
type Credentials struct {
	User     string `yaml:"user,omitempty" json:"user,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	KeyFile  string `yaml:"key_file,omitempty" json:"key_file,omitempty"`
	Token    string `yaml:"token,omitempty" json:"-"`
}

func (c *Credentials) IsEmpty() bool {
	return c == nil || (c.User == "" && c.Password == "" && c.KeyFile == "" && c.Token == "")
}

// Clone returns a copy, or nil for nil credentials.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// LoginOptions describes what a connection knows before the first login.
// Credentials is nil when nothing is stored and the user must be asked.
type LoginOptions struct {
	Server      string
	Credentials *Credentials
}

// HasStoredCredentials reports whether a login can run without asking the user.
func (o LoginOptions) HasStoredCredentials() bool {
	return o.Credentials != nil
}

// CredentialLookup resolves stored credentials for a server identity.
type CredentialLookup func(server string) (*Credentials, bool)
