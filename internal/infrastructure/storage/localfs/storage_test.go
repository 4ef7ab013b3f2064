package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveCreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected New to leave the directory alone, stat err = %v", err)
	}

	path, err := store.Save(context.Background(), "batik-sekar_duren-1.jpg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "batik-sekar_duren-1.jpg") {
		t.Fatalf("unexpected path %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(raw) != "jpeg bytes" {
		t.Fatalf("unexpected content %q", raw)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestSaveRejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"../evil.jpg", "a/b.jpg", "", ".hidden"} {
		if _, err := store.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestNewRejectsFilePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "exports")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := New(file); err == nil {
		t.Fatalf("expected error for a non-directory export path")
	}
}
