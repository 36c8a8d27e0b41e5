package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/navigator/log"
)

const sample = `
location: mem://scratch/
data_dir: ${NAV_TEST_HOME}/data
timeout: 5s
hide_parent: true
terminal: [kitty, --single-instance]
log:
  level: debug
  file: ${NAV_TEST_HOME}/navigator.log
hosts:
  - server: ftp://files.example.com
    user: alice
    password: ${NAV_TEST_FTP_PASSWORD}
  - server: ssh://backup.internal:2222
    key_file: ${NAV_TEST_HOME}/.ssh/id_ed25519
`

func TestParse(t *testing.T) {
	t.Setenv("NAV_TEST_HOME", "/home/alice")
	t.Setenv("NAV_TEST_FTP_PASSWORD", "hunter2")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Location != "mem://scratch/" {
		t.Errorf("unexpected location '%s'", cfg.Location)
	}
	if cfg.DataDir != "/home/alice/data" {
		t.Errorf("unexpected data dir '%s'", cfg.DataDir)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Timeout)
	}
	if !cfg.HideParent {
		t.Error("hide_parent not decoded")
	}
	if len(cfg.Terminal) != 2 || cfg.Terminal[0] != "kitty" {
		t.Errorf("unexpected terminal %v", cfg.Terminal)
	}
	if cfg.Log.Level != log.Debug {
		t.Errorf("unexpected log level %s", cfg.Log.Level)
	}
	if cfg.Log.MaxBackups != 5 {
		t.Errorf("default rotation lost, got %d backups", cfg.Log.MaxBackups)
	}
	if len(cfg.Hosts) != 2 || cfg.Hosts[0].Password != "hunter2" {
		t.Fatalf("unexpected hosts %+v", cfg.Hosts)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing server":  "hosts:\n  - user: alice\n",
		"malformed":       "hosts:\n  - server: files.example.com\n",
		"duplicate":       "hosts:\n  - server: ftp://alice@a\n  - server: ftp://a\n    user: alice\n",
		"negative":        "timeout: -1s\n",
		"bad level":       "log:\n  level: loud\n",
		"not a structure": "- a\n- b\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(content)); err == nil {
				t.Errorf("Parse() accepted %q", content)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NAV_TEST_TOKEN", "")
	os.Unsetenv("NAV_TEST_TOKEN")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NAV_TEST_TOKEN=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	content := "hosts:\n  - server: s3://minio.local:9000\n    user: access\n    token: ${NAV_TEST_TOKEN}\n"
	path := filepath.Join(dir, "navigator.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := cfg.Hosts[0].Token; got != "from-dotenv" {
		t.Errorf("expected token from .env, got '%s'", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "navigator.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestCredentialLookup(t *testing.T) {
	cfg := &Config{
		Hosts: []Host{
			{Server: "ftp://files.example.com", User: "alice", Password: "hunter2"},
			{Server: "ssh://backup.internal:2222", KeyFile: "/keys/id_ed25519"},
		},
	}
	lookup := cfg.CredentialLookup()

	creds, ok := lookup("ftp://alice@files.example.com")
	if !ok || creds.Password != "hunter2" {
		t.Fatalf("expected stored ftp credentials, got %+v (%v)", creds, ok)
	}

	// Returned credentials are copies
	creds.Password = "changed"
	if creds, _ := lookup("ftp://alice@files.example.com"); creds.Password != "hunter2" {
		t.Error("lookup returned shared credentials")
	}

	if _, ok := lookup("ftp://bob@files.example.com"); ok {
		t.Error("credentials of alice were returned for bob")
	}

	creds, ok = lookup("ssh://root@backup.internal:2222")
	if !ok || creds.User != "root" || creds.KeyFile != "/keys/id_ed25519" {
		t.Fatalf("expected key credentials for any user, got %+v (%v)", creds, ok)
	}

	if _, ok := lookup("ssh://backup.internal"); ok {
		t.Error("port mismatch still matched")
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := Default()
	if logger := cfg.Logger("navigator", true); logger.Level != log.Fatal+1 {
		t.Errorf("expected discarding logger without a file, got level %s", logger.Level)
	}

	cfg.Log.File = filepath.Join(t.TempDir(), "navigator.log")
	cfg.Log.Level = log.Warn
	logger := cfg.Logger("navigator", true)
	if logger.Level != log.Warn || logger.Rotation.MaxSize != 128 {
		t.Errorf("unexpected logger %+v", logger)
	}
}
