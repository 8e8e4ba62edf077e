// Package analyzer wires the export-map engine, the rule set, and the
// filesystem walk into a single analysis run.
package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"exportmap/internal/config"
	"exportmap/internal/exportmap"
	"exportmap/internal/observability"
	"exportmap/internal/resolver"
	"exportmap/internal/rules"
	"exportmap/internal/syntax"
	"exportmap/internal/tsconfig"
)

type Analyzer struct {
	cfg      *config.Config
	settings exportmap.Settings
	res      *resolver.Resolver
	parser   *syntax.Parser
	cache    *exportmap.Cache
	projects *tsconfig.Cache
	root     *exportmap.Context
	ruleSet  []rules.Rule
}

// Result summarizes one analysis run.
type Result struct {
	FilesScanned int
	Modules      int
	Ambiguous    int
	Unanalyzable int
	ParseErrors  int
	Diagnostics  []rules.Diagnostic
}

func New(cfg *config.Config) (*Analyzer, error) {
	settings := SettingsFrom(cfg)
	a := &Analyzer{
		cfg:      cfg,
		settings: settings,
		res:      resolver.New(cfg.Extensions),
		parser:   syntax.NewParser(syntax.NewGrammarLoader()),
		cache:    exportmap.NewCache(),
		projects: tsconfig.NewCache(),
	}

	if cfg.Rules.NoDeprecated.IsEnabled() {
		a.ruleSet = append(a.ruleSet, rules.NewNoDeprecated())
	}
	if cfg.Rules.MaxDependencies.IsEnabled() {
		a.ruleSet = append(a.ruleSet, rules.NewMaxDependencies(
			cfg.Rules.MaxDependencies.Max,
			cfg.Rules.MaxDependencies.IgnoreTypeImports,
		))
	}
	if cfg.Rules.ParseErrors.IsEnabled() {
		a.ruleSet = append(a.ruleSet, rules.NewParseErrors())
	}

	// The root context compiles the ignore globs once; per-file contexts
	// derive from it. A bad pattern fails the run, not the first lookup.
	root, err := exportmap.NewContext(".", settings, a.res, a.parser, a.cache, a.projects)
	if err != nil {
		return nil, err
	}
	a.root = root
	return a, nil
}

func SettingsFrom(cfg *config.Config) exportmap.Settings {
	return exportmap.Settings{
		Extensions:  cfg.Extensions,
		IgnoreDirs:  cfg.Ignore.Dirs,
		IgnoreFiles: cfg.Ignore.Files,
		DocStyles:   cfg.DocStyles,
		InteropMode: cfg.Interop.Mode,
	}
}

// RunScan walks the configured roots, builds export maps, and runs every
// enabled rule over the analyzable files.
func (a *Analyzer) RunScan(ctx context.Context) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.RunScan")
	defer span.End()

	files, err := a.scanRoots()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("files.candidates", len(files)))

	collector := rules.NewCollector()
	result := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := a.AnalyzeFile(ctx, path, collector)
		if err != nil {
			slog.Warn("failed to analyze file", "path", path, "error", err)
			continue
		}
		result.FilesScanned++
		if m == nil {
			result.Unanalyzable++
			continue
		}
		switch m.ParseGoal {
		case exportmap.GoalModule:
			result.Modules++
		default:
			result.Ambiguous++
		}
		if len(m.Errors) > 0 {
			result.ParseErrors++
		}
	}

	result.Diagnostics = collector.Diagnostics()
	span.SetAttributes(
		attribute.Int("files.modules", result.Modules),
		attribute.Int("diagnostics", len(result.Diagnostics)),
	)
	return result, nil
}

// AnalyzeFile resolves one file's export map and runs the rule set over it.
// A nil map with a nil error means the file was rejected or is not a module.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, report rules.Reporter) (*exportmap.ExportMap, error) {
	_, span := observability.Tracer.Start(ctx, "analyzer.AnalyzeFile",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	m, err := a.root.Child(path).Resolve()
	if err != nil || m == nil {
		return nil, err
	}

	for _, rule := range a.ruleSet {
		rule.Check(m, report)
	}
	return m, nil
}

// ExportMapFor exposes a single file's export map without running rules.
func (a *Analyzer) ExportMapFor(path string) (*exportmap.ExportMap, error) {
	return a.root.Child(path).Resolve()
}

// Invalidate drops cached state for a changed file. Watcher events carry
// paths relative to the configured roots; cache entries are keyed by the
// absolute path produced during the scan, so normalize before matching.
func (a *Analyzer) Invalidate(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	a.cache.Invalidate(path)
}

// scanRoots walks every configured root and returns candidate file paths with
// recognized extensions, excluded directories pruned during the walk.
func (a *Analyzer) scanRoots() ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.cfg.Ignore.Dirs))
	for _, p := range a.cfg.Ignore.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}
	fileGlobs := make([]glob.Glob, 0, len(a.cfg.Ignore.Files))
	for _, p := range a.cfg.Ignore.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	extensions := make(map[string]bool, len(a.cfg.Extensions))
	for _, ext := range a.cfg.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	var files []string
	for _, root := range a.cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				base := filepath.Base(path)
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !extensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			base := filepath.Base(path)
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			files = append(files, abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
