// # cmd/exportmap/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"exportmap/internal/analyzer"
	"exportmap/internal/config"
	"exportmap/internal/history"
	"exportmap/internal/observability"
	"exportmap/internal/output"
	"exportmap/internal/watcher"
)

var (
	configPath = flag.String("config", "./exportmap.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single scan and exit")
	tsvPath    = flag.String("tsv", "", "Write diagnostics as TSV to the given file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("exportmap v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./exportmap.toml" && os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.Roots = flag.Args()
	}

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			slog.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	if cfg.Metrics.Enabled {
		srv := observability.NewServer(cfg.Metrics.Addr)
		srv.Start()
		defer srv.Stop(ctx)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	result, err := app.Scan(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(output.RenderSummary(result))

	if *tsvPath != "" {
		if err := app.WriteTSV(*tsvPath, result); err != nil {
			slog.Error("failed to write TSV", "path", *tsvPath, "error", err)
		}
	}

	if *once {
		if len(result.Diagnostics) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	select {}
}

// App ties the analyzer to the optional history store and watcher.
type App struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	store    *history.Store
	watcher  *watcher.Watcher
}

func NewApp(cfg *config.Config) (*App, error) {
	a, err := analyzer.New(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, analyzer: a}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	return app, nil
}

func (app *App) Scan(ctx context.Context) (*analyzer.Result, error) {
	result, err := app.analyzer.RunScan(ctx)
	if err != nil {
		return nil, err
	}

	if app.store != nil {
		snap := history.Snapshot{
			Roots:             app.cfg.Roots,
			FilesScanned:      result.FilesScanned,
			Modules:           result.Modules,
			Ambiguous:         result.Ambiguous,
			Unanalyzable:      result.Unanalyzable,
			ParseErrors:       result.ParseErrors,
			DiagnosticCount:   len(result.Diagnostics),
			DiagnosticsByRule: output.CountByRule(result.Diagnostics),
		}
		runID, err := app.store.Record(ctx, snap)
		if err != nil {
			slog.Warn("failed to record run snapshot", "error", err)
		} else {
			slog.Debug("recorded run snapshot", "run_id", runID)
		}
	}

	return result, nil
}

func (app *App) WriteTSV(path string, result *analyzer.Result) error {
	gen := output.NewTSVGenerator(result.Diagnostics)
	data, err := gen.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0644)
}

func (app *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.NewWatcher(app.cfg.Watch.Debounce, app.cfg.Extensions,
		app.cfg.Ignore.Dirs, app.cfg.Ignore.Files, func(paths []string) {
			for _, p := range paths {
				app.analyzer.Invalidate(p)
			}
			slog.Info("re-analyzing after change", "files", len(paths))

			result, err := app.Scan(ctx)
			if err != nil {
				slog.Error("re-scan failed", "error", err)
				return
			}
			fmt.Print(output.RenderSummary(result))
		})
	if err != nil {
		return err
	}

	if err := w.Watch(app.cfg.Roots); err != nil {
		w.Close()
		return err
	}

	app.watcher = w
	slog.Info("watching for changes", "roots", app.cfg.Roots, "debounce", app.cfg.Watch.Debounce)
	return nil
}

func (app *App) Close() {
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.store != nil {
		app.store.Close()
	}
}
