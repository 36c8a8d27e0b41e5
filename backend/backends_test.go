package backend_test

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/backend/local"
	"github.com/mwantia/navigator/backend/memory"
	"github.com/mwantia/navigator/backend/sqlite"
	"github.com/mwantia/navigator/data"
	nerrors "github.com/mwantia/navigator/data/errors"
)

// TestBackend bundles a connection with its root location and a way to seed files.
type TestBackend struct {
	Conn      backend.Connection
	Root      string
	WriteFile func(t *testing.T, dir, name string, content []byte)
}

// TestBackendFactory creates a new backend instance for testing.
type TestBackendFactory func(t *testing.T) (*TestBackend, error)

// GetTestBackendFactories returns all backend implementations to test.
func GetTestBackendFactories() map[string]TestBackendFactory {
	return map[string]TestBackendFactory{
		"local": func(t *testing.T) (*TestBackend, error) {
			root := t.TempDir()
			return &TestBackend{
				Conn: local.NewLocalBackend(),
				Root: root,
				WriteFile: func(t *testing.T, dir, name string, content []byte) {
					if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
						t.Fatalf("WriteFile failed: %v", err)
					}
				},
			}, nil
		},
		"memory": func(t *testing.T) (*TestBackend, error) {
			store := memory.NewStore()
			conn, err := memory.NewMemoryBackend("mem://test/", store)
			if err != nil {
				return nil, err
			}
			return &TestBackend{
				Conn: conn,
				Root: "mem://test/",
				WriteFile: func(t *testing.T, dir, name string, content []byte) {
					addr, _ := backend.ParseAddress(dir)
					if err := store.WriteFile(data.JoinPath(addr.Path, name), content); err != nil {
						t.Fatalf("WriteFile failed: %v", err)
					}
				},
			}, nil
		},
		"sqlite": func(t *testing.T) (*TestBackend, error) {
			conn, err := sqlite.NewSQLiteBackend("sqlite://test/", "")
			if err != nil {
				return nil, err
			}
			return &TestBackend{
				Conn: conn,
				Root: "sqlite://test/",
				WriteFile: func(t *testing.T, dir, name string, content []byte) {
					if err := conn.WriteFile(t.Context(), dir, name, content); err != nil {
						t.Fatalf("WriteFile failed: %v", err)
					}
				},
			}, nil
		},
	}
}

func connect(t *testing.T, factory TestBackendFactory) *TestBackend {
	tb, err := factory(t)
	if err != nil {
		t.Fatalf("Backend init failed: %v", err)
	}

	conn := tb.Conn
	if !conn.IsConnected() {
		opts := conn.LoginOptions()
		if !opts.HasStoredCredentials() {
			t.Fatalf("expected stored credentials for %s", conn.Kind())
		}
		if err := conn.Login(t.Context(), opts.Server, opts.Credentials); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
	}
	t.Cleanup(func() {
		conn.Close(t.Context())
	})

	tb.Root, err = conn.Cd(t.Context(), tb.Root)
	if err != nil {
		t.Fatalf("Cd root failed: %v", err)
	}

	return tb
}

func names(entries []*data.Entry) []string {
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Name)
	}
	slices.Sort(result)
	return result
}

// TestAllBackends_Navigation verifies directory creation, cd and listing
// across all backend implementations.
func TestAllBackends_Navigation(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			tb := connect(tst, factory)
			conn := tb.Conn

			if err := conn.MakeDir(ctx, tb.Root, "docs"); err != nil {
				tst.Fatalf("MakeDir failed: %v", err)
			}
			tb.WriteFile(tst, tb.Root, "readme.md", []byte("# hello"))

			entries, err := conn.List(ctx, tb.Root, false)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if got := names(entries); !slices.Equal(got, []string{"docs", "readme.md"}) {
				tst.Fatalf("unexpected listing %v", got)
			}

			for _, entry := range entries {
				if entry.Name == "docs" && !conn.IsDir(entry) {
					tst.Error("expected docs to be a directory")
				}
				if entry.Name == "readme.md" && entry.Size != 7 {
					tst.Errorf("expected size 7, got %d", entry.Size)
				}
			}

			docs := conn.Join(tb.Root, "docs")
			resolved, err := conn.Cd(ctx, docs)
			if err != nil {
				tst.Fatalf("Cd failed: %v", err)
			}
			if resolved != conn.Sanitize(docs) {
				tst.Errorf("expected %s, got %s", conn.Sanitize(docs), resolved)
			}

			withParent, err := conn.List(ctx, docs, true)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(withParent) != 1 || withParent[0].Name != data.ParentName {
				tst.Fatalf("expected only the parent entry, got %v", names(withParent))
			}

			parent := withParent[0].Path()
			if _, err := conn.Cd(ctx, parent); err != nil {
				tst.Errorf("Cd into parent entry failed: %v", err)
			}

			if conn.IsRoot(docs) {
				tst.Error("docs must not be a root")
			}
		})
	}
}

// TestAllBackends_Errors verifies that failures carry raw codes the
// normalizer understands.
func TestAllBackends_Errors(t *testing.T) {
	normalizer := nerrors.NewNormalizer(nerrors.PlatformLinux)

	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			tb := connect(tst, factory)
			conn := tb.Conn

			_, err := conn.Cd(ctx, conn.Join(tb.Root, "missing"))
			if kind := normalizer.Normalize(err).Kind; kind != nerrors.KindNotFound {
				tst.Errorf("expected NotFound for missing directory, got %s (%v)", kind, err)
			}

			tb.WriteFile(tst, tb.Root, "file.txt", []byte("x"))
			_, err = conn.Cd(ctx, conn.Join(tb.Root, "file.txt"))
			if kind := normalizer.Normalize(err).Kind; kind != nerrors.KindCannotReadFolder {
				tst.Errorf("expected CannotReadFolder for a file, got %s (%v)", kind, err)
			}

			err = conn.MakeDir(ctx, tb.Root, "a/b")
			normalized := normalizer.Normalize(err)
			if normalized.Kind != nerrors.KindInvalidFilename {
				tst.Errorf("expected InvalidFilename, got %s (%v)", normalized.Kind, err)
			}
			if normalized.Param("filename") != "a/b" {
				tst.Errorf("expected filename param, got %q", normalized.Param("filename"))
			}

			before, _ := conn.List(ctx, tb.Root, false)
			if _, err := conn.List(ctx, conn.Join(tb.Root, "missing"), false); err == nil {
				tst.Error("expected listing a missing directory to fail")
			}
			after, _ := conn.List(ctx, tb.Root, false)
			if !slices.Equal(names(before), names(after)) {
				tst.Error("failed listing changed the directory")
			}
		})
	}
}

// TestAllBackends_Mutations verifies rename, exists, size, get and delete.
func TestAllBackends_Mutations(t *testing.T) {
	for name, factory := range GetTestBackendFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			tb := connect(tst, factory)
			conn := tb.Conn

			if err := conn.MakeDir(ctx, tb.Root, "project"); err != nil {
				tst.Fatalf("MakeDir failed: %v", err)
			}
			project := conn.Join(tb.Root, "project")
			tb.WriteFile(tst, project, "main.go", make([]byte, 100))
			tb.WriteFile(tst, tb.Root, "notes.txt", []byte("remember"))

			size, err := conn.Size(ctx, tb.Root, []string{"project", "notes.txt"})
			if err != nil {
				tst.Fatalf("Size failed: %v", err)
			}
			if size != 108 {
				tst.Errorf("expected 108 bytes, got %d", size)
			}

			if err := conn.Rename(ctx, tb.Root, "project", "renamed"); err != nil {
				tst.Fatalf("Rename failed: %v", err)
			}

			exists, err := conn.Exists(ctx, conn.Join(tb.Root, "renamed", "main.go"))
			if err != nil || !exists {
				tst.Errorf("expected moved file to exist: %v", err)
			}
			exists, err = conn.Exists(ctx, project)
			if err != nil || exists {
				tst.Errorf("expected old directory to be gone: %v", err)
			}

			var buf bytes.Buffer
			if err := conn.Get(ctx, conn.Join(tb.Root, "notes.txt"), &buf); err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if buf.String() != "remember" {
				tst.Errorf("unexpected content %q", buf.String())
			}

			removed, err := conn.Delete(ctx, tb.Root, []string{"renamed", "notes.txt", "ghost"})
			if removed != 2 {
				tst.Errorf("expected 2 removed entries, got %d", removed)
			}
			if err == nil {
				tst.Error("expected an error for the missing entry")
			}

			entries, err := conn.List(ctx, tb.Root, false)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(entries) != 0 {
				tst.Errorf("expected empty directory, got %v", names(entries))
			}
		})
	}
}
