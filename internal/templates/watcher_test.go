package templates

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForChanges(t *testing.T, w *Watcher, want int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		changed := w.ChangedFiles()
		if len(changed) >= want {
			return changed
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("changed files = %v, want %d entries", w.ChangedFiles(), want)
	return nil
}

func TestWatcher_RecordsTemplateFileChanges(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if got := w.ChangedFiles(); len(got) != 0 {
		t.Fatalf("ChangedFiles() before any write = %v, want empty", got)
	}

	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("id: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := waitForChanges(t, w, 1)
	found := false
	for _, f := range changed {
		if f == path {
			found = true
		}
	}
	if !found {
		t.Errorf("ChangedFiles() = %v, want to contain %s", changed, path)
	}
}

func TestWatcher_IgnoresNonTemplateFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Follow up with a template file so there is a definite event to wait on.
	yamlPath := filepath.Join(dir, "later.yml")
	if err := os.WriteFile(yamlPath, []byte("id: later\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := waitForChanges(t, w, 1)
	for _, f := range changed {
		if filepath.Ext(f) == ".txt" {
			t.Errorf("ChangedFiles() = %v, recorded a non-template file", changed)
		}
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Error("NewWatcher() on a missing directory returned nil error")
	}
}
