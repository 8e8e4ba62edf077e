package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"exportmap/internal/analyzer"
	"exportmap/internal/rules"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	diagnosticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

// RenderSummary formats one analysis result for the terminal.
func RenderSummary(result *analyzer.Result) string {
	var buf strings.Builder

	buf.WriteString(titleStyle.Render("Export Analysis"))
	buf.WriteString("\n")
	buf.WriteString(statusStyle.Render(fmt.Sprintf(
		"%d files scanned, %d modules, %d ambiguous, %d unanalyzable, %d with parse errors",
		result.FilesScanned, result.Modules, result.Ambiguous,
		result.Unanalyzable, result.ParseErrors)))
	buf.WriteString("\n\n")

	if len(result.Diagnostics) == 0 {
		buf.WriteString(successStyle.Render("No issues found"))
		buf.WriteString("\n")
		return buf.String()
	}

	for _, d := range result.Diagnostics {
		buf.WriteString(diagnosticStyle.Render(d.Rule))
		buf.WriteString(" ")
		buf.WriteString(d.Message)
		buf.WriteString("\n  ")
		buf.WriteString(locationStyle.Render(fmt.Sprintf("%s:%d:%d", d.Path, d.Line, d.Column)))
		buf.WriteString("\n")
	}

	buf.WriteString("\n")
	buf.WriteString(diagnosticStyle.Render(fmt.Sprintf("%d issue(s)", len(result.Diagnostics))))
	buf.WriteString("\n")
	return buf.String()
}

// CountByRule tallies diagnostics per rule name, for snapshot storage.
func CountByRule(diagnostics []rules.Diagnostic) map[string]int {
	out := make(map[string]int)
	for _, d := range diagnostics {
		out[d.Rule]++
	}
	return out
}
