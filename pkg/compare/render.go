// pkg/compare/render.go
package compare

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
)

var (
	colorMuted = lipgloss.Color("#8b949e")
	colorGood  = lipgloss.Color("#3fb950")
	colorWarn  = lipgloss.Color("#d29922")
	colorBad   = lipgloss.Color("#f85149")
	colorTitle = lipgloss.Color("#58a6ff")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorTitle).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	upStyle   = lipgloss.NewStyle().Foreground(colorGood)
	flatStyle = lipgloss.NewStyle().Foreground(colorWarn)
	downStyle = lipgloss.NewStyle().Foreground(colorBad)
)

// deltaStyle colours a change by its sign
func deltaStyle(d float64) lipgloss.Style {
	switch {
	case d > tolerance:
		return upStyle
	case d < -tolerance:
		return downStyle
	default:
		return flatStyle
	}
}

func label(p assess.Principle) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Render formats a comparison for the terminal
func Render(c Comparison) string {
	imp := c.Improvements
	var b strings.Builder

	b.WriteString(titleStyle.Render("FAIR SCORE COMPARISON") + "\n")
	b.WriteString(labelStyle.Render("Original Dataset:") + " " + filepath.Base(c.Original.Path) + "\n")
	b.WriteString(labelStyle.Render("Enriched Dataset:") + " " + filepath.Base(c.Enriched.Path) + "\n")

	b.WriteString(sectionStyle.Render("SCORES") + "\n")
	b.WriteString("Total Score:\n")
	b.WriteString(fmt.Sprintf("  Original:  %.1f/100 (Grade: %s)\n", c.Original.TotalScore, c.Original.Grade))
	b.WriteString(fmt.Sprintf("  Enriched:  %.1f/100 (Grade: %s)\n", c.Enriched.TotalScore, c.Enriched.Grade))
	b.WriteString("  Change:    " + deltaStyle(imp.TotalScore).Render(
		fmt.Sprintf("%+.1f points (%s)", imp.TotalScore, imp.GradeChange)) + "\n")

	b.WriteString("\nBreakdown:\n")
	for _, p := range assess.Principles {
		d := imp.Delta(p)
		marker := "▲"
		if d < -tolerance {
			marker = "▼"
		}
		b.WriteString(fmt.Sprintf("  %-15s %5.1f → %5.1f  ", label(p), c.Original.Score(p), c.Enriched.Score(p)))
		b.WriteString(deltaStyle(d).Render(fmt.Sprintf("(%+.1f) %s", d, marker)) + "\n")
	}

	b.WriteString(sectionStyle.Render("SUMMARY") + "\n")
	switch c.Verdict() {
	case VerdictImproved:
		b.WriteString(upStyle.Render("Enrichment successful") + "\n")
		b.WriteString(fmt.Sprintf("  Improved by %.1f points\n", imp.TotalScore))
		if c.GradeImproved() {
			b.WriteString(fmt.Sprintf("  Grade improved from %s to %s\n", c.Original.Grade, c.Enriched.Grade))
		}
	case VerdictUnchanged:
		b.WriteString(flatStyle.Render("No change in FAIR score") + "\n")
		b.WriteString("  Dataset already had good compliance\n")
	default:
		b.WriteString(downStyle.Render("FAIR score decreased") + "\n")
		b.WriteString("  Enrichment should never lower the score; check the enricher ledgers\n")
	}
	return b.String()
}

// RenderCF formats a compliance-checker comparison
func RenderCF(c CFComparison) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CF COMPLIANCE COMPARISON") + "\n")
	b.WriteString(fmt.Sprintf("  %s: %.1f%% (%d issues)\n",
		filepath.Base(c.Dataset1.Path), c.Dataset1.Score, c.Dataset1.Summary.Total))
	b.WriteString(fmt.Sprintf("  %s: %.1f%% (%d issues)\n",
		filepath.Base(c.Dataset2.Path), c.Dataset2.Score, c.Dataset2.Summary.Total))
	b.WriteString("  Improvement: " + deltaStyle(c.Improvement).Render(fmt.Sprintf("%+.1f%%", c.Improvement)) + "\n")
	b.WriteString(fmt.Sprintf("  Issues fixed: %d\n", c.IssuesFixed))
	return b.String()
}
