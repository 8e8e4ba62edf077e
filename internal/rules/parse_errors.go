package rules

import (
	"exportmap/internal/exportmap"
)

// ParseErrors surfaces parse failures in imported modules, anchored at the
// importing declaration.
type ParseErrors struct{}

func NewParseErrors() *ParseErrors {
	return &ParseErrors{}
}

func (r *ParseErrors) Name() string {
	return "parse-errors"
}

func (r *ParseErrors) Check(m *exportmap.ExportMap, report Reporter) {
	sink := ruleSink{rule: r.Name(), report: report}
	for _, imp := range m.Imports {
		child := imp.Getter()
		if child == nil || len(child.Errors) == 0 {
			continue
		}
		for _, decl := range imp.Declarations {
			child.ReportErrors(sink, decl.Specifier, decl.Loc)
		}
	}
}
