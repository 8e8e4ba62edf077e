// Package exportmap builds and queries the per-file export graph of an
// ECMAScript codebase. Each analyzed file yields one ExportMap; links between
// files are resolve-by-key thunks routed through a shared cache, so the graph
// tolerates import cycles without ownership issues.
package exportmap

import (
	"fmt"
	"strings"
	"time"

	"exportmap/internal/syntax"
)

// ParseGoal records how confidently a file was classified as a module.
// Plain scripts never yield an export map, so only the two module
// classifications exist.
type ParseGoal string

const (
	GoalAmbiguous ParseGoal = "ambiguous"
	GoalModule    ParseGoal = "module"
)

// Thunk resolves a linked file's export map on demand. Returning nil means
// the target is external or unanalyzable; that edge is pruned. Thunks are
// idempotent: repeated calls route through the shared cache.
type Thunk func() *ExportMap

// Export is the metadata recorded for one exported name.
type Export struct {
	Doc *Annotation
	// Namespace links to the export map behind a re-exported namespace
	// object (import * as X ... export { X }), resolved lazily.
	Namespace Thunk
}

// Reexport binds an exported name to another file's export.
type Reexport struct {
	Local  string
	Getter Thunk
}

// ImportDeclaration is the provenance of one import site.
type ImportDeclaration struct {
	Specifier     string
	Loc           syntax.Location
	ImportedNames []string
	Dynamic       bool
	TypeOnly      bool
}

// Import tracks a module this file consumes without re-exporting it.
type Import struct {
	Getter       Thunk
	Declarations []ImportDeclaration
}

// ExportMap is the resolved per-file artifact. Identity is the file path.
// Once built, a map is immutable by convention; invalidation replaces entries
// wholesale.
type ExportMap struct {
	Path         string
	Namespace    map[string]*Export
	Reexports    map[string]Reexport
	Dependencies []Thunk
	Imports      map[string]*Import
	Errors       []*syntax.ParseError
	ParseGoal    ParseGoal
	Doc          *Annotation
	ModTime      time.Time
}

func New(path string) *ExportMap {
	return &ExportMap{
		Path:      path,
		Namespace: make(map[string]*Export),
		Reexports: make(map[string]Reexport),
		Imports:   make(map[string]*Import),
		ParseGoal: GoalAmbiguous,
	}
}

// Lookup is the outcome of a deep Get: the name was found, the chain hit an
// unanalyzable target (blocked), or no export by that name exists anywhere.
// Callers must distinguish blocked from missing.
type Lookup int

const (
	LookupMissing Lookup = iota
	LookupBlocked
	LookupFound
)

// Has reports whether name is visible on this map: locally namespaced,
// re-exported, or star-exported by a dependency. A default export never
// propagates through star-exports.
func (m *ExportMap) Has(name string) bool {
	if _, ok := m.Namespace[name]; ok {
		return true
	}
	if _, ok := m.Reexports[name]; ok {
		return true
	}
	if name != "default" {
		for _, dep := range m.Dependencies {
			d := dep()
			if d == nil || d.Path == m.Path {
				continue
			}
			if d.Has(name) {
				return true
			}
		}
	}
	return false
}

// DeepResult is the trail of export maps a deep lookup walked through,
// outermost first.
type DeepResult struct {
	Found bool
	Path  []*ExportMap
}

// HasDeep follows re-export chains to their origin. An unresolvable re-export
// target counts as found at the current map: when the target cannot be
// inspected, assume success rather than flag a false positive. A re-export of
// a name from the file itself under the same name terminates as not found.
func (m *ExportMap) HasDeep(name string) DeepResult {
	if _, ok := m.Namespace[name]; ok {
		return DeepResult{Found: true, Path: []*ExportMap{m}}
	}

	if re, ok := m.Reexports[name]; ok {
		imported := re.Getter()
		if imported == nil {
			return DeepResult{Found: true, Path: []*ExportMap{m}}
		}
		if imported.Path == m.Path && re.Local == name {
			return DeepResult{Found: false, Path: []*ExportMap{m}}
		}
		deeper := imported.HasDeep(re.Local)
		deeper.Path = append([]*ExportMap{m}, deeper.Path...)
		return deeper
	}

	if name != "default" {
		for _, dep := range m.Dependencies {
			d := dep()
			if d == nil || d.Path == m.Path {
				continue
			}
			inner := d.HasDeep(name)
			if inner.Found {
				inner.Path = append([]*ExportMap{m}, inner.Path...)
				return inner
			}
		}
	}

	return DeepResult{Found: false, Path: []*ExportMap{m}}
}

// Get returns the export's metadata by following the same chain as HasDeep.
// LookupBlocked means a re-export target resolved to an unanalyzable module;
// LookupMissing means no export by that name exists anywhere in the chain.
func (m *ExportMap) Get(name string) (*Export, Lookup) {
	if v, ok := m.Namespace[name]; ok {
		return v, LookupFound
	}

	if re, ok := m.Reexports[name]; ok {
		imported := re.Getter()
		if imported == nil {
			return nil, LookupBlocked
		}
		if imported.Path == m.Path && re.Local == name {
			return nil, LookupMissing
		}
		return imported.Get(re.Local)
	}

	if name != "default" {
		for _, dep := range m.Dependencies {
			d := dep()
			if d == nil || d.Path == m.Path {
				continue
			}
			if v, state := d.Get(name); state != LookupMissing {
				return v, state
			}
		}
	}

	return nil, LookupMissing
}

// ForEach enumerates every visible export: local names, resolved re-exports
// (export may be nil when the target is unresolvable), and each star
// dependency's own exports except default. Star chains flatten transitively
// through the recursive call.
func (m *ExportMap) ForEach(fn func(name string, export *Export, source *ExportMap)) {
	for name, exp := range m.Namespace {
		fn(name, exp, m)
	}
	for name, re := range m.Reexports {
		imported := re.Getter()
		if imported == nil {
			fn(name, nil, m)
			continue
		}
		v, _ := imported.Get(re.Local)
		fn(name, v, m)
	}
	for _, dep := range m.Dependencies {
		d := dep()
		if d == nil || d.Path == m.Path {
			continue
		}
		d.ForEach(func(name string, exp *Export, _ *ExportMap) {
			if name != "default" {
				fn(name, exp, m)
			}
		})
	}
}

// Size counts visible exports, transitively including resolvable star
// dependencies. Unresolvable dependencies contribute zero.
func (m *ExportMap) Size() int {
	n := len(m.Namespace) + len(m.Reexports)
	for _, dep := range m.Dependencies {
		d := dep()
		if d == nil || d.Path == m.Path {
			continue
		}
		n += d.Size()
	}
	return n
}

// Reporter receives formatted diagnostics anchored at a source location.
type Reporter interface {
	Report(loc syntax.Location, message string)
}

// ReportErrors forwards this map's accumulated parse errors as one message,
// anchored at the import/export declaration that referenced the module.
func (m *ExportMap) ReportErrors(sink Reporter, specifier string, loc syntax.Location) {
	if len(m.Errors) == 0 {
		return
	}
	parts := make([]string, 0, len(m.Errors))
	for _, e := range m.Errors {
		parts = append(parts, fmt.Sprintf("%s (%d:%d)", e.Message, e.Line, e.Column))
	}
	sink.Report(loc, fmt.Sprintf("Parse errors in imported module '%s': %s", specifier, strings.Join(parts, ", ")))
}
