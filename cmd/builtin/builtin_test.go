package builtin

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/backend/memory"
	"github.com/mwantia/navigator/cmd"
)

func setupSession(t *testing.T) (*navigator.Session, *cmd.Center, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	for _, dir := range []string{"/home/alice/docs", "/home/alice/.cache", "/etc"} {
		if err := store.MkdirAll(dir); err != nil {
			t.Fatalf("MkdirAll(%s) failed: %v", dir, err)
		}
	}
	files := map[string]string{
		"/home/alice/notes.txt":       "remember the milk",
		"/home/alice/docs/report.txt": "quarterly numbers",
	}
	for path, content := range files {
		if err := store.WriteFile(path, []byte(content)); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", path, err)
		}
	}

	registry, err := navigator.NewRegistry(navigator.WithMemoryStore("demo", store))
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	session, err := navigator.Open(t.Context(), "mem://demo/home/alice",
		navigator.WithRegistry(registry),
		navigator.WithTempDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		session.Close(context.Background())
	})

	center := cmd.NewCenter()
	if err := InitBuiltin(center); err != nil {
		t.Fatalf("InitBuiltin() failed: %v", err)
	}

	return session, center, store
}

func run(t *testing.T, center *cmd.Center, api cmd.API, line string) (string, int, error) {
	t.Helper()

	var out bytes.Buffer
	code, err := center.ExecuteLine(t.Context(), api, &out, line)
	return out.String(), code, err
}

func mustRun(t *testing.T, center *cmd.Center, api cmd.API, line string) string {
	t.Helper()

	out, code, err := run(t, center, api, line)
	if err != nil || code != 0 {
		t.Fatalf("'%s' failed with code %d: %v", line, code, err)
	}
	return out
}

func TestInitBuiltin_Twice(t *testing.T) {
	center := cmd.NewCenter()
	if err := InitBuiltin(center); err != nil {
		t.Fatalf("InitBuiltin() failed: %v", err)
	}
	if err := InitBuiltin(center); err == nil {
		t.Error("registering the builtins twice succeeded")
	}
	if len(center.List()) != len(Commands()) {
		t.Errorf("expected %d commands, got %d", len(Commands()), len(center.List()))
	}
}

func TestLs(t *testing.T) {
	session, center, _ := setupSession(t)

	out := mustRun(t, center, session, "ls")
	if out != "docs/\nnotes.txt\n" {
		t.Errorf("unexpected listing %q", out)
	}

	out = mustRun(t, center, session, "ls -a")
	for _, name := range []string{"../", ".cache/", "docs/", "notes.txt"} {
		if !strings.Contains(out, name+"\n") {
			t.Errorf("expected '%s' in %q", name, out)
		}
	}

	out = mustRun(t, center, session, "ls -l")
	if !strings.Contains(out, "17 B") || !strings.Contains(out, "notes.txt") {
		t.Errorf("unexpected long listing %q", out)
	}
}

func TestNavigationCommands(t *testing.T) {
	session, center, _ := setupSession(t)

	mustRun(t, center, session, "cd docs")
	if got := mustRun(t, center, session, "pwd"); got != "mem://demo/home/alice/docs\n" {
		t.Errorf("unexpected location %q", got)
	}

	mustRun(t, center, session, "cd /etc")
	mustRun(t, center, session, "cd ..")
	if session.Location() != "mem://demo/" {
		t.Errorf("unexpected location '%s'", session.Location())
	}

	if got := mustRun(t, center, session, "back -n 2"); got != "mem://demo/home/alice/docs\n" {
		t.Errorf("unexpected back target %q", got)
	}
	if got := mustRun(t, center, session, "forward"); got != "mem://demo/etc\n" {
		t.Errorf("unexpected forward target %q", got)
	}

	out := mustRun(t, center, session, "history")
	if !strings.Contains(out, "*   2  mem://demo/etc") {
		t.Errorf("cursor not marked in %q", out)
	}

	if _, code, err := run(t, center, session, "cd missing"); err == nil || code != 1 {
		t.Errorf("cd into a missing directory returned %d, %v", code, err)
	}
	if session.Location() != "mem://demo/etc" {
		t.Errorf("failed cd changed the location to '%s'", session.Location())
	}
}

func TestFileCommands(t *testing.T) {
	session, center, store := setupSession(t)

	mustRun(t, center, session, `mkdir "new folder" archive`)
	if _, err := store.Stat("/home/alice/new folder"); err != nil {
		t.Errorf("directory was not created: %v", err)
	}

	mustRun(t, center, session, "mv notes.txt todo.txt")
	if _, err := store.Stat("/home/alice/todo.txt"); err != nil {
		t.Errorf("file was not renamed: %v", err)
	}

	if got := mustRun(t, center, session, "du -b todo.txt"); got != "17\n" {
		t.Errorf("unexpected size %q", got)
	}

	if got := mustRun(t, center, session, "exists docs/report.txt"); got != "true\n" {
		t.Errorf("unexpected exists output %q", got)
	}
	if out, code, err := run(t, center, session, "exists docs/missing.txt"); err != nil || code != 1 || out != "false\n" {
		t.Errorf("exists of a missing file returned %q, %d, %v", out, code, err)
	}

	local := strings.TrimSpace(mustRun(t, center, session, "get todo.txt"))
	if !strings.HasSuffix(local, "todo.txt") {
		t.Errorf("unexpected local path '%s'", local)
	}

	if got := mustRun(t, center, session, "rm archive"); got != "removed 1 of 1\n" {
		t.Errorf("unexpected rm output %q", got)
	}
	if _, _, err := run(t, center, session, "rm ghost"); err == nil {
		t.Error("removing an unknown entry succeeded")
	}
}

func TestSessionCommands(t *testing.T) {
	session, center, _ := setupSession(t)

	out := mustRun(t, center, session, "status")
	for _, want := range []string{"status:   ok", "backend:  memory", "server:   mem://demo"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected '%s' in %q", want, out)
		}
	}

	if _, code, err := run(t, center, session, "login"); code != 2 || err == nil {
		t.Errorf("login without user returned %d, %v", code, err)
	}

	if _, code, err := run(t, center, session, "term"); code != 1 || err == nil {
		t.Errorf("terminal on a memory backend returned %d, %v", code, err)
	}
}

func TestUnknownCommand(t *testing.T) {
	session, center, _ := setupSession(t)

	if _, code, err := run(t, center, session, "format c:"); code != 127 || err == nil {
		t.Errorf("unknown command returned %d, %v", code, err)
	}
	if _, code, err := run(t, center, session, "ls --color"); code != 2 || err == nil {
		t.Errorf("unknown flag returned %d, %v", code, err)
	}
}
