package exportmap

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"exportmap/internal/resolver"
	"exportmap/internal/syntax"
	"exportmap/internal/tsconfig"
)

// Settings is the serializable slice of the analysis configuration that
// contributes to cache keys. Two contexts with equal settings fingerprints
// may share cached export maps.
type Settings struct {
	Extensions  []string `json:"extensions"`
	IgnoreDirs  []string `json:"ignore_dirs"`
	IgnoreFiles []string `json:"ignore_files"`
	DocStyles   []string `json:"docstyles"`
	InteropMode string   `json:"interop_mode"`
}

// Context is the reduced per-file analysis context: just enough to reproduce
// a cache key and re-invoke resolution for an imported file. Heavyweight host
// state never crosses file boundaries.
type Context struct {
	Path     string
	Settings Settings
	Resolver *resolver.Resolver
	Parser   *syntax.Parser
	Cache    *Cache
	Projects *tsconfig.Cache

	ignore *ignoreMatcher
	key    string
}

func NewContext(path string, settings Settings, res *resolver.Resolver, parser *syntax.Parser, cache *Cache, projects *tsconfig.Cache) (*Context, error) {
	matcher, err := newIgnoreMatcher(settings)
	if err != nil {
		return nil, err
	}
	c := &Context{
		Path:     path,
		Settings: settings,
		Resolver: res,
		Parser:   parser,
		Cache:    cache,
		Projects: projects,
		ignore:   matcher,
	}
	c.key = cacheKey(c)
	return c, nil
}

// Child derives the context for another file. The compiled ignore matcher is
// shared; only the path (and therefore the cache key) changes.
func (c *Context) Child(path string) *Context {
	return c.child(path)
}

func (c *Context) child(path string) *Context {
	nc := &Context{
		Path:     path,
		Settings: c.Settings,
		Resolver: c.Resolver,
		Parser:   c.Parser,
		Cache:    c.Cache,
		Projects: c.Projects,
		ignore:   c.ignore,
	}
	nc.key = cacheKey(nc)
	return nc
}

func (c *Context) CacheKey() string {
	return c.key
}

// Resolve looks up or builds this file's export map through the shared cache.
func (c *Context) Resolve() (*ExportMap, error) {
	return c.Cache.LookupOrBuild(c)
}

// cacheKey concatenates the resolver identity, the settings fingerprint, and
// the file path.
func cacheKey(c *Context) string {
	return c.Resolver.ID() + ":" + Fingerprint(c.Settings) + ":" + c.Path
}

// Fingerprint is a deterministic hash of a configuration value. Struct fields
// serialize in declaration order, so equal values hash equally.
func Fingerprint(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("unhashable:%v", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
