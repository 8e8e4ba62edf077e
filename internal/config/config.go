package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version    int      `toml:"version"`
	Roots      []string `toml:"roots"`
	Extensions []string `toml:"extensions"`
	DocStyles  []string `toml:"docstyles"`
	Ignore     Ignore   `toml:"ignore"`
	Interop    Interop  `toml:"interop"`
	Rules      Rules    `toml:"rules"`
	DB         Database `toml:"db"`
	Watch      Watch    `toml:"watch"`
	Metrics    Metrics  `toml:"metrics"`
	Tracing    Tracing  `toml:"tracing"`
}

type Ignore struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

// Interop controls the esModuleInterop default-export fix-up. Mode "auto"
// reads the nearest tsconfig/jsconfig; "on" and "off" force the behavior.
type Interop struct {
	Mode string `toml:"mode"`
}

type Rules struct {
	NoDeprecated    NoDeprecated    `toml:"no_deprecated"`
	MaxDependencies MaxDependencies `toml:"max_dependencies"`
	ParseErrors     ParseErrors     `toml:"parse_errors"`
}

type NoDeprecated struct {
	Enabled *bool `toml:"enabled"`
}

type MaxDependencies struct {
	Enabled           *bool `toml:"enabled"`
	Max               int   `toml:"max"`
	IgnoreTypeImports bool  `toml:"ignore_type_imports"`
}

type ParseErrors struct {
	Enabled *bool `toml:"enabled"`
}

type Database struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type Tracing struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateExtensions(&cfg); err != nil {
		return nil, err
	}
	if err := validateDocStyles(&cfg); err != nil {
		return nil, err
	}
	if err := validateInterop(&cfg); err != nil {
		return nil, err
	}
	if err := validateRules(&cfg); err != nil {
		return nil, err
	}
	if err := validateMetrics(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
	}
	if len(cfg.DocStyles) == 0 {
		cfg.DocStyles = []string{"jsdoc"}
	}
	if len(cfg.Ignore.Dirs) == 0 {
		cfg.Ignore.Dirs = []string{"node_modules", ".git", "dist", "build"}
	}
	if strings.TrimSpace(cfg.Interop.Mode) == "" {
		cfg.Interop.Mode = "auto"
	}
	if cfg.Rules.MaxDependencies.Max <= 0 {
		cfg.Rules.MaxDependencies.Max = 10
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "exportmap.db"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if strings.TrimSpace(cfg.Metrics.Addr) == "" {
		cfg.Metrics.Addr = "127.0.0.1:9187"
	}
	if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		cfg.Tracing.Endpoint = "127.0.0.1:4317"
	}
}

func (r NoDeprecated) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

func (r MaxDependencies) IsEnabled() bool {
	return r.Enabled != nil && *r.Enabled
}

func (r ParseErrors) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExtensions(cfg *Config) error {
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extensions entries must start with a dot, got %q", ext)
		}
	}
	return nil
}

func validateDocStyles(cfg *Config) error {
	for _, style := range cfg.DocStyles {
		switch style {
		case "jsdoc", "line":
		default:
			return fmt.Errorf("docstyles must be one of: jsdoc, line; got %q", style)
		}
	}
	return nil
}

func validateInterop(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Interop.Mode)) {
	case "auto", "on", "off":
		return nil
	}
	return fmt.Errorf("interop.mode must be one of: auto, on, off; got %q", cfg.Interop.Mode)
}

func validateRules(cfg *Config) error {
	if cfg.Rules.MaxDependencies.Max < 1 {
		return fmt.Errorf("rules.max_dependencies.max must be >= 1, got %d", cfg.Rules.MaxDependencies.Max)
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics.enabled=true")
	}
	return nil
}
