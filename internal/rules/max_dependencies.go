package rules

import (
	"fmt"

	"exportmap/internal/exportmap"
)

// MaxDependencies reports files whose consumed-module count exceeds a
// configured maximum.
type MaxDependencies struct {
	Max               int
	IgnoreTypeImports bool
}

func NewMaxDependencies(max int, ignoreTypeImports bool) *MaxDependencies {
	return &MaxDependencies{Max: max, IgnoreTypeImports: ignoreTypeImports}
}

func (r *MaxDependencies) Name() string {
	return "max-dependencies"
}

func (r *MaxDependencies) Check(m *exportmap.ExportMap, report Reporter) {
	count := 0
	for _, imp := range m.Imports {
		if r.IgnoreTypeImports && allTypeOnly(imp) {
			continue
		}
		count++
	}
	if count <= r.Max {
		return
	}
	report.Report(Diagnostic{
		Path:    m.Path,
		Line:    1,
		Column:  1,
		Rule:    r.Name(),
		Message: fmt.Sprintf("Maximum number of dependencies (%d) exceeded (found %d).", r.Max, count),
	})
}

func allTypeOnly(imp *exportmap.Import) bool {
	for _, decl := range imp.Declarations {
		if !decl.TypeOnly {
			return false
		}
	}
	return len(imp.Declarations) > 0
}
