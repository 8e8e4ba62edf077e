package rules

import (
	"fmt"

	"exportmap/internal/exportmap"
)

// NoDeprecated reports imports of names whose exporting declaration carries a
// @deprecated annotation, following re-export chains to the origin.
type NoDeprecated struct{}

func NewNoDeprecated() *NoDeprecated {
	return &NoDeprecated{}
}

func (r *NoDeprecated) Name() string {
	return "no-deprecated"
}

func (r *NoDeprecated) Check(m *exportmap.ExportMap, report Reporter) {
	for _, imp := range m.Imports {
		child := imp.Getter()
		if child == nil {
			continue
		}
		for _, decl := range imp.Declarations {
			for _, name := range decl.ImportedNames {
				if name == "*" {
					// Namespace imports defer to member-access analysis,
					// which is the host's responsibility.
					continue
				}
				exp, state := child.Get(name)
				if state != exportmap.LookupFound || exp == nil {
					continue
				}
				msg, ok := exp.Doc.Deprecated()
				if !ok {
					continue
				}
				text := fmt.Sprintf("'%s' is deprecated.", name)
				if msg != "" {
					text = fmt.Sprintf("'%s' is deprecated: %s", name, msg)
				}
				report.Report(Diagnostic{
					Path:    decl.Loc.File,
					Line:    decl.Loc.Line,
					Column:  decl.Loc.Column,
					Rule:    r.Name(),
					Message: text,
				})
			}
		}
	}
}
