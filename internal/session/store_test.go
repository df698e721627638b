// ABOUTME: Tests for token persistence
// ABOUTME: Verifies the session file format, permissions and clear semantics

package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SaveLoadClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clinic")
	store := NewFileStore(dir)

	empty, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error loading missing file: %v", err)
	}
	if !empty.IsZero() {
		t.Errorf("expected empty tokens, got %+v", empty)
	}

	if err := store.Save(Tokens{Access: "a1", Refresh: "r1"}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if got.Access != "a1" || got.Refresh != "r1" {
		t.Errorf("unexpected tokens: %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, stat err: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("clearing twice should succeed, got %v", err)
	}
}

func TestFileStore_UsesBackendKeyNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"token":"a","refresh_token":"r"}`), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Access != "a" || got.Refresh != "r" {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestFileStore_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected empty tokens, got %+v", got)
	}
}
