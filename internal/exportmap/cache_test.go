// # internal/exportmap/cache_test.go
package exportmap

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestCacheHitIsIdentityStable(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"mod.js": "export const one = 1;\n",
	})

	first := f.resolve(t, "mod.js")
	second := f.resolve(t, "mod.js")
	if first == nil || second == nil {
		t.Fatal("Expected maps on both lookups")
	}
	if first != second {
		t.Error("An unchanged file must return the identical map instance")
	}
	if f.cache.Len() != 1 {
		t.Errorf("Expected 1 cache entry, got %d", f.cache.Len())
	}
}

func TestCacheRebuildsOnModTimeChange(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"mod.js": "export const one = 1;\n",
	})
	path := filepath.Join(f.dir, "mod.js")

	first := f.resolve(t, "mod.js")
	if first == nil || !first.Has("one") {
		t.Fatal("Expected the initial build")
	}

	if err := os.WriteFile(path, []byte("export const two = 2;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second := f.resolve(t, "mod.js")
	if second == nil {
		t.Fatal("Expected a rebuilt map")
	}
	if second == first {
		t.Error("A changed file must produce a fresh map instance")
	}
	if !second.Has("two") || second.Has("one") {
		t.Error("The rebuilt map must reflect the new content")
	}
}

func TestCacheMissingFilePropagatesError(t *testing.T) {
	f := newFixture(t, defaultSettings(), nil)

	_, err := f.context(t, "gone.js").Resolve()
	if err == nil {
		t.Fatal("Expected a stat error for a missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected the underlying error unmodified, got %v", err)
	}
	if f.cache.Len() != 0 {
		t.Error("A failed lookup must not leave a cache entry")
	}
}

func TestCacheRejectsForeignExtension(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"notes.txt": "export const looksLikeAModule = true;\n",
	})

	m, err := f.context(t, "notes.txt").Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Error("A foreign extension must be rejected before parsing")
	}
	if f.cache.Len() != 1 {
		t.Error("The rejection must be cached as a sentinel")
	}
}

func TestCacheSentinelNotRecheckedOnModTimeChange(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"script.js": "var x = 1;\n",
	})
	path := filepath.Join(f.dir, "script.js")

	if m, _ := f.context(t, "script.js").Resolve(); m != nil {
		t.Fatal("Expected the script to be unanalyzable")
	}

	// Rewrite the file into a real module; the sentinel must still answer.
	if err := os.WriteFile(path, []byte("export const x = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if m, _ := f.context(t, "script.js").Resolve(); m != nil {
		t.Error("The unanalyzable sentinel is never invalidated by mtime")
	}
}

func TestCacheInvalidateDropsAllEntriesForPath(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"script.js": "var x = 1;\n",
	})
	path := filepath.Join(f.dir, "script.js")

	if m, _ := f.context(t, "script.js").Resolve(); m != nil {
		t.Fatal("Expected the script to be unanalyzable")
	}

	if err := os.WriteFile(path, []byte("export const x = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f.cache.Invalidate(path)
	if f.cache.Len() != 0 {
		t.Fatalf("Expected an empty cache after invalidation, got %d entries", f.cache.Len())
	}

	m := f.resolve(t, "script.js")
	if m == nil || !m.Has("x") {
		t.Error("Expected a rebuild after explicit invalidation")
	}
}

func TestCacheKeyVariesWithSettings(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"mod.js": "export const one = 1;\n",
	})

	a := f.context(t, "mod.js")

	other := defaultSettings()
	other.DocStyles = []string{"line"}
	b, err := NewContext(filepath.Join(f.dir, "mod.js"), other, f.res, f.parser, f.cache, f.projects)
	if err != nil {
		t.Fatal(err)
	}

	if a.CacheKey() == b.CacheKey() {
		t.Error("Different settings must produce different cache keys")
	}

	if _, err := a.Resolve(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Resolve(); err != nil {
		t.Fatal(err)
	}
	if f.cache.Len() != 2 {
		t.Errorf("Expected 2 entries for 2 fingerprints, got %d", f.cache.Len())
	}
}

func TestCacheConcurrentLookups(t *testing.T) {
	f := newFixture(t, defaultSettings(), map[string]string{
		"mod.js": "export const one = 1;\n",
	})
	ctx := f.context(t, "mod.js")

	const n = 16
	results := make([]*ExportMap, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := ctx.Resolve()
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			results[i] = m
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("Concurrent lookups must converge on one instance")
		}
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	s := defaultSettings()
	a := Fingerprint(s)
	b := Fingerprint(s)
	if a != b {
		t.Error("Fingerprint must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("Expected a sha256 hex digest, got %d chars", len(a))
	}

	s.InteropMode = "on"
	if Fingerprint(s) == a {
		t.Error("A settings change must change the fingerprint")
	}
}
