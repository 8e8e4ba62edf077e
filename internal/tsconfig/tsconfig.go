// Package tsconfig locates and parses the nearest TypeScript/JavaScript
// project configuration above a source file. Only the handful of compiler
// options the analyzer consumes are modeled.
package tsconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var configFilenames = []string{"tsconfig.json", "jsconfig.json"}

type CompilerOptions struct {
	EsModuleInterop bool `json:"esModuleInterop"`
}

type ProjectConfig struct {
	Path            string
	CompilerOptions CompilerOptions `json:"compilerOptions"`
}

// Cache memoizes nearest-config lookups per starting directory. Entries are
// never invalidated within a process run: project configuration is assumed
// stable for the lifetime of an analysis.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*ProjectConfig
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*ProjectConfig)}
}

// Nearest returns the closest project config at or above fromDir, or nil when
// none exists. Parse failures are treated as absence.
func (c *Cache) Nearest(fromDir string) *ProjectConfig {
	fromDir = filepath.Clean(fromDir)

	c.mu.RLock()
	cfg, ok := c.entries[fromDir]
	c.mu.RUnlock()
	if ok {
		return cfg
	}

	cfg = findNearest(fromDir)
	c.mu.Lock()
	c.entries[fromDir] = cfg
	c.mu.Unlock()
	return cfg
}

func findNearest(dir string) *ProjectConfig {
	for {
		for _, name := range configFilenames {
			path := filepath.Join(dir, name)
			if cfg := load(path); cfg != nil {
				return cfg
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

func load(path string) *ProjectConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(stripJSONC(data), &cfg); err != nil {
		return nil
	}
	cfg.Path = path
	return &cfg
}

// stripJSONC removes // and /* */ comments and trailing commas, which the
// TypeScript config format permits but encoding/json rejects.
func stripJSONC(data []byte) []byte {
	var out strings.Builder
	out.Grow(len(data))

	inString := false
	inLine := false
	inBlock := false
	for i := 0; i < len(data); i++ {
		ch := data[i]
		switch {
		case inLine:
			if ch == '\n' {
				inLine = false
				out.WriteByte(ch)
			}
		case inBlock:
			if ch == '*' && i+1 < len(data) && data[i+1] == '/' {
				inBlock = false
				i++
			}
		case inString:
			out.WriteByte(ch)
			if ch == '\\' && i+1 < len(data) {
				out.WriteByte(data[i+1])
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
			out.WriteByte(ch)
		case ch == '/' && i+1 < len(data) && data[i+1] == '/':
			inLine = true
			i++
		case ch == '/' && i+1 < len(data) && data[i+1] == '*':
			inBlock = true
			i++
		case ch == ',':
			// Drop the comma if the next meaningful byte closes a scope.
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out.WriteByte(ch)
		default:
			out.WriteByte(ch)
		}
	}
	return []byte(out.String())
}
