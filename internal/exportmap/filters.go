package exportmap

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// maybeModuleRE is a cheap pre-parse heuristic for ECMAScript module syntax:
// an import/export keyword in statement position, or a dynamic import call.
// The authoritative check happens on the parsed tree.
var maybeModuleRE = regexp.MustCompile(`(?m)(^|;)\s*(export|import)\b|\bimport\s*\(`)

func isMaybeModule(content []byte) bool {
	return maybeModuleRE.Match(content)
}

func hasRecognizedExtension(path string, settings Settings) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range settings.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ignoreMatcher holds the compiled ignore globs. Directory patterns match any
// path segment; file patterns match the base name or the full slash path.
type ignoreMatcher struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func newIgnoreMatcher(settings Settings) (*ignoreMatcher, error) {
	m := &ignoreMatcher{}
	for _, p := range settings.IgnoreDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore dir pattern %q: %w", p, err)
		}
		m.dirs = append(m.dirs, g)
	}
	for _, p := range settings.IgnoreFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore file pattern %q: %w", p, err)
		}
		m.files = append(m.files, g)
	}
	return m, nil
}

func (m *ignoreMatcher) Match(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range m.files {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if seg == "" {
			continue
		}
		for _, g := range m.dirs {
			if g.Match(seg) {
				return true
			}
		}
	}
	return false
}
