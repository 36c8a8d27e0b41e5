package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/log"
	"gopkg.in/yaml.v3"
)

// Config is the content of navigator.yaml.
type Config struct {
	// Location is opened when no location is given on the command line.
	Location   string        `yaml:"location"`
	DataDir    string        `yaml:"data_dir"`
	TempDir    string        `yaml:"temp_dir"`
	Timeout    time.Duration `yaml:"timeout"`
	HideParent bool          `yaml:"hide_parent"`
	Terminal   []string      `yaml:"terminal"`

	Log   LogConfig `yaml:"log"`
	Hosts []Host    `yaml:"hosts"`
}

type LogConfig struct {
	Level      log.LogLevel `yaml:"level"`
	File       string       `yaml:"file"`
	JSON       bool         `yaml:"json"`
	NoColor    bool         `yaml:"no_color"`
	MaxSize    int          `yaml:"max_size"`
	MaxBackups int          `yaml:"max_backups"`
	MaxAge     int          `yaml:"max_age"`
}

// Host stores the credentials of a single server identity, such as
// "ftp://alice@files.example.com" or "ssh://backup.internal:2222".
type Host struct {
	Server   string `yaml:"server"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`
	Token    string `yaml:"token"`
}

func Default() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Log: LogConfig{
			Level:      log.Info,
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
		},
	}
}

// Load reads the YAML file at path on top of Default. A .env file next to
// it is loaded first so that ${VAR} references can be resolved from it.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(filepath.Dir(absPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load '%s': %w", envPath, err)
		}
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", absPath, err)
	}

	return Parse(content)
}

// Parse decodes content on top of Default and expands environment
// references in every string value.
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) expand() {
	c.Location = os.ExpandEnv(c.Location)
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.TempDir = os.ExpandEnv(c.TempDir)
	c.Log.File = os.ExpandEnv(c.Log.File)

	for i := range c.Terminal {
		c.Terminal[i] = os.ExpandEnv(c.Terminal[i])
	}

	for i := range c.Hosts {
		h := &c.Hosts[i]
		h.Server = os.ExpandEnv(h.Server)
		h.User = os.ExpandEnv(h.User)
		h.Password = os.ExpandEnv(h.Password)
		h.KeyFile = os.ExpandEnv(h.KeyFile)
		h.Token = os.ExpandEnv(h.Token)
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout '%s'", c.Timeout)
	}

	seen := make(map[string]bool, len(c.Hosts))
	for i, h := range c.Hosts {
		if h.Server == "" {
			return fmt.Errorf("host #%d has no server", i)
		}

		server, err := serverIdentity(h.Server, h.User)
		if err != nil {
			return fmt.Errorf("host #%d: %w", i, err)
		}
		if seen[server] {
			return fmt.Errorf("host '%s' is defined more than once", server)
		}
		seen[server] = true
	}

	return nil
}

// serverIdentity renders server the way connections report it, with the
// host user taking the place of a missing user part.
func serverIdentity(server, user string) (string, error) {
	addr, err := backend.ParseAddress(server)
	if err != nil {
		return "", err
	}
	if addr.User == "" {
		addr.User = user
	}

	return addr.Server(), nil
}

// CredentialLookup returns the stored host credentials, matched by server
// identity. A host without user also matches servers carrying one.
func (c *Config) CredentialLookup() backend.CredentialLookup {
	hosts := make(map[string]*backend.Credentials, len(c.Hosts))
	for _, h := range c.Hosts {
		server, err := serverIdentity(h.Server, h.User)
		if err != nil {
			continue
		}

		hosts[strings.ToLower(server)] = &backend.Credentials{
			User:     h.User,
			Password: h.Password,
			KeyFile:  h.KeyFile,
			Token:    h.Token,
		}
	}

	return func(server string) (*backend.Credentials, bool) {
		if creds, ok := hosts[strings.ToLower(server)]; ok {
			return creds.Clone(), true
		}

		addr, err := backend.ParseAddress(server)
		if err != nil || addr.User == "" {
			return nil, false
		}

		user := addr.User
		addr.User = ""
		creds, ok := hosts[strings.ToLower(addr.Server())]
		if !ok || (creds.User != "" && creds.User != user) {
			return nil, false
		}

		creds = creds.Clone()
		creds.User = user
		return creds, true
	}
}

// Logger builds the logger described by the log section. Without a log
// file a logger that must stay off the terminal discards everything.
func (c *Config) Logger(name string, noTerminal bool) *log.Logger {
	if noTerminal && c.Log.File == "" {
		return log.Discard()
	}

	logger := log.NewLogger(name, c.Log.Level, c.Log.File, noTerminal)
	logger.JSON = c.Log.JSON
	logger.NoColor = c.Log.NoColor

	return logger.WithRotation(&log.LoggerRotation{
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	})
}
