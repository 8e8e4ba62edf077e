// Package rules contains the lint checks that consume the export graph.
// Rules never mutate export maps; they query and report.
package rules

import (
	"sync"

	"exportmap/internal/exportmap"
	"exportmap/internal/observability"
	"exportmap/internal/syntax"
)

type Diagnostic struct {
	Path    string
	Line    int
	Column  int
	Rule    string
	Message string
}

// Reporter is the host's diagnostic sink.
type Reporter interface {
	Report(d Diagnostic)
}

// Rule checks one analyzed file against the export graph.
type Rule interface {
	Name() string
	Check(m *exportmap.ExportMap, report Reporter)
}

// Collector is a thread-safe in-memory Reporter.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(d Diagnostic) {
	observability.DiagnosticsTotal.WithLabelValues(d.Rule).Inc()
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// ruleSink adapts a Reporter to the export-map error-reporting contract,
// stamping the rule name onto forwarded messages.
type ruleSink struct {
	rule   string
	report Reporter
}

func (s ruleSink) Report(loc syntax.Location, message string) {
	s.report.Report(Diagnostic{
		Path:    loc.File,
		Line:    loc.Line,
		Column:  loc.Column,
		Rule:    s.rule,
		Message: message,
	})
}
