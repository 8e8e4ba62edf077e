// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"exportmap/internal/rules"
)

type TSVGenerator struct {
	diagnostics []rules.Diagnostic
}

func NewTSVGenerator(diagnostics []rules.Diagnostic) *TSVGenerator {
	return &TSVGenerator{diagnostics: diagnostics}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Rule\tFile\tLine\tColumn\tMessage\n")

	for _, d := range t.diagnostics {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%s\n",
			d.Rule, d.Path, d.Line, d.Column, sanitize(d.Message)))
	}

	return buf.String(), nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
