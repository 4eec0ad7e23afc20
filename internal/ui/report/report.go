// Package report renders check lists for terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status is the outcome of one check.
type Status string

// Check statuses.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Row is one line of a check list.
type Row struct {
	Section string
	Name    string
	Status  Status
	Detail  string
}

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

// Checklist renders rows grouped by section under a title.
func Checklist(title, subtitle string, rows []Row) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  " + title))
	b.WriteString("\n")
	if subtitle != "" {
		b.WriteString(subtitleStyle.Render("  " + subtitle))
		b.WriteString("\n")
	}

	section := ""
	for _, r := range rows {
		if r.Section != section {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("  " + r.Section))
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("  " + strings.Repeat("-", 35)))
			b.WriteString("\n")
			section = r.Section
		}
		icon, style := statusIcon(r.Status)
		line := fmt.Sprintf("  %s  %-18s", style(icon), r.Name)
		if r.Detail != "" {
			line += " " + dimStyle.Render(r.Detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(summary(rows))
	b.WriteString("\n")

	return b.String()
}

func summary(rows []Row) string {
	failed := 0
	for _, r := range rows {
		if r.Status == StatusFailed {
			failed++
		}
	}
	if failed == 0 {
		return readyStyle.Render("  All checks passed.")
	}
	return warningStyle.Render(fmt.Sprintf("  %d of %d checks failed.", failed, len(rows)))
}

func statusIcon(s Status) (string, styleFunc) {
	switch s {
	case StatusOK:
		return checkMark, sf(readyStyle)
	case StatusSkipped:
		return skipMark, sf(dimStyle)
	default:
		return crossMark, sf(failedStyle)
	}
}
