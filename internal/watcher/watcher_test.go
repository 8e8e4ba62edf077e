// # internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherCoalescesChanges(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{".js"}, nil, nil, func(paths []string) {
		changes <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.js"), []byte("export const a = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.js"), []byte("export const b = 2;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		seen := make(map[string]bool)
		for _, p := range paths {
			seen[filepath.Base(p)] = true
		}
		if !seen["a.js"] && !seen["b.js"] {
			t.Errorf("Expected the changed files in the batch, got %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the change batch")
	}
}

func TestWatcherFiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{".js"}, nil, []string{"*.min.js"}, func(paths []string) {
		changes <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bundle.min.js"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("export const x = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		for _, p := range paths {
			base := filepath.Base(p)
			if base != "app.js" {
				t.Errorf("Unexpected path in batch: %s", p)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the change batch")
	}
}

func TestShouldExcludeDir(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"node_modules", ".git"}, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.shouldExcludeDir("/repo/node_modules") {
		t.Error("Expected node_modules to be excluded")
	}
	if w.shouldExcludeDir("/repo/src") {
		t.Error("src must not be excluded")
	}
}
