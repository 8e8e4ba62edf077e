// Package resolver maps import specifier strings to absolute file paths on
// disk. Bare specifiers (packages) are treated as external and unresolvable;
// only relative and absolute specifiers participate in graph traversal.
package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

var defaultExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}

type Resolver struct {
	extensions []string
}

func New(extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	return &Resolver{extensions: extensions}
}

// ID identifies this resolver implementation in cache keys.
func (r *Resolver) ID() string {
	return "fs-relative"
}

func (r *Resolver) Extensions() []string {
	out := make([]string, len(r.extensions))
	copy(out, r.extensions)
	return out
}

// Resolve returns the absolute path a specifier refers to, or "" when the
// specifier is external or no matching file exists. Unresolvable is not an
// error: it prunes that edge of the graph.
func (r *Resolver) Resolve(specifier, fromPath string) string {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return ""
	}

	var base string
	switch {
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == "..":
		base = filepath.Join(filepath.Dir(fromPath), filepath.FromSlash(specifier))
	case filepath.IsAbs(specifier):
		base = filepath.Clean(specifier)
	default:
		// Bare specifier: a package, not a project file.
		return ""
	}

	if p := r.probeFile(base); p != "" {
		return p
	}
	if info, err := os.Stat(base); err == nil && info.IsDir() {
		for _, ext := range r.extensions {
			candidate := filepath.Join(base, "index"+ext)
			if isFile(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// probeFile tries the path as given, then with each recognized extension.
func (r *Resolver) probeFile(base string) string {
	if isFile(base) {
		return base
	}
	for _, ext := range r.extensions {
		if candidate := base + ext; isFile(candidate) {
			return candidate
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
