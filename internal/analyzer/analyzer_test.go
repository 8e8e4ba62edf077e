// # internal/analyzer/analyzer_test.go
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exportmap/internal/config"
	"exportmap/internal/rules"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func projectConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Roots = []string{dir}
	cfg.Interop.Mode = "off"
	return cfg
}

func TestRunScan(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/util.js": `
/** @deprecated use shiny() instead */
export function dull() {}
export function shiny() {}
`,
		"src/main.js": `
import { dull, shiny } from './util.js';
export const run = () => dull() || shiny();
`,
		"src/script.js":             "var legacy = 1;\n",
		"src/lazy.js":               "function f(n) { return import(n); }\n",
		"node_modules/pkg/index.js": "export const ignored = 1;\n",
		"src/readme.txt":            "not code\n",
	})

	a, err := New(projectConfig(dir))
	require.NoError(t, err)

	result, err := a.RunScan(context.Background())
	require.NoError(t, err)

	// script.js and lazy.js are walked; readme.txt and node_modules are not.
	assert.Equal(t, 4, result.FilesScanned)
	assert.Equal(t, 2, result.Modules)
	assert.Equal(t, 1, result.Ambiguous)
	assert.Equal(t, 1, result.Unanalyzable)
	assert.Equal(t, 0, result.ParseErrors)

	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, "no-deprecated", d.Rule)
	assert.Contains(t, d.Message, "'dull' is deprecated")
	assert.Equal(t, filepath.Join(dir, "src", "main.js"), d.Path)
}

func TestRunScanParseErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/broken.js": "import { from './x.js';\n",
		"src/main.js":   "import { thing } from './broken.js';\nexport const x = thing;\n",
	})

	a, err := New(projectConfig(dir))
	require.NoError(t, err)

	result, err := a.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ParseErrors)

	var parseDiags []rules.Diagnostic
	for _, d := range result.Diagnostics {
		if d.Rule == "parse-errors" {
			parseDiags = append(parseDiags, d)
		}
	}
	require.Len(t, parseDiags, 1)
	assert.Contains(t, parseDiags[0].Message, "Parse errors in imported module './broken.js'")
	assert.Equal(t, filepath.Join(dir, "src", "main.js"), parseDiags[0].Path)
}

func TestRunScanMaxDependencies(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/a.js":   "export const a = 1;\n",
		"src/b.js":   "export const b = 2;\n",
		"src/hub.js": "import { a } from './a.js';\nimport { b } from './b.js';\nexport const sum = a + b;\n",
	})

	cfg := projectConfig(dir)
	enabled := true
	cfg.Rules.MaxDependencies.Enabled = &enabled
	cfg.Rules.MaxDependencies.Max = 1

	a, err := New(cfg)
	require.NoError(t, err)

	result, err := a.RunScan(context.Background())
	require.NoError(t, err)

	var found bool
	for _, d := range result.Diagnostics {
		if d.Rule == "max-dependencies" {
			found = true
			assert.Equal(t, "Maximum number of dependencies (1) exceeded (found 2).", d.Message)
			assert.Equal(t, filepath.Join(dir, "src", "hub.js"), d.Path)
		}
	}
	assert.True(t, found, "expected a max-dependencies diagnostic")
}

func TestInvalidateForcesRebuild(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/mod.js": "export const one = 1;\n",
	})
	path := filepath.Join(dir, "src", "mod.js")

	a, err := New(projectConfig(dir))
	require.NoError(t, err)

	first, err := a.ExportMapFor(path)
	require.NoError(t, err)
	require.NotNil(t, first)

	a.Invalidate(path)

	second, err := a.ExportMapFor(path)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
}

func TestInvalidateRelativePathDropsSentinel(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/mod.js": "var plain = 1;\n",
	})
	path := filepath.Join(dir, "src", "mod.js")

	a, err := New(projectConfig(dir))
	require.NoError(t, err)

	// A plain script caches as a rejection sentinel, which modification
	// times never refresh.
	first, err := a.ExportMapFor(path)
	require.NoError(t, err)
	require.Nil(t, first)

	require.NoError(t, os.WriteFile(path, []byte("export const one = 1;\n"), 0644))

	// Watcher events arrive relative to the configured roots.
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)
	a.Invalidate(rel)

	second, err := a.ExportMapFor(path)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.Has("one"))
}

func TestRunScanCancellation(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/mod.js": "export const one = 1;\n",
	})

	a, err := New(projectConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.RunScan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
