// pkg/pipeline/summary.go
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/cleaner"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
)

// Summary aggregates the ledgers of the enrichers that completed
type Summary struct {
	RunID        string                    `json:"run_id"`
	Pipeline     Kind                      `json:"pipeline"`
	State        string                    `json:"state"`
	InputFile    string                    `json:"input_file"`
	OutputFile   string                    `json:"output_file"`
	EnrichersRun []string                  `json:"enrichers_run"`
	Skipped      []string                  `json:"skipped,omitempty"`
	TotalChanges int                       `json:"total_changes"`
	Cleaning     map[string]int            `json:"cleaning,omitempty"`
	Enrichers    map[string]enrich.Summary `json:"enrichers"`
	DurationsMS  map[string]float64        `json:"durations_ms"`
	Warnings     []string                  `json:"warnings,omitempty"`
}

// Summary returns the enrichment summary of the run so far
func (p *Pipeline) Summary() Summary {
	s := Summary{
		RunID:        p.id,
		Pipeline:     p.kind,
		State:        p.state.String(),
		InputFile:    p.inputPath,
		OutputFile:   p.OutputPath(),
		EnrichersRun: append([]string{}, p.ran...),
		Skipped:      append([]string(nil), p.skipped...),
		TotalChanges: p.totalChanges(),
		Cleaning:     cleaner.CountByOperation(p.cleaning),
		Enrichers:    make(map[string]enrich.Summary, len(p.results)),
		DurationsMS:  make(map[string]float64),
	}
	for _, r := range p.results {
		s.Enrichers[r.Enricher] = r
	}
	for _, t := range p.timings {
		s.DurationsMS[t.Enricher] += float64(t.Duration.Microseconds()) / 1000
	}
	for _, err := range multierr.Errors(p.validation) {
		s.Warnings = append(s.Warnings, err.Error())
	}
	return s
}

// ValidationErrors returns the combined validation failures, nil when every
// enricher validated
func (p *Pipeline) ValidationErrors() error {
	return p.validation
}

const (
	rule       = "======================================================================"
	maxSamples = 3
)

// Report renders the summary as plain text
func (p *Pipeline) Report() string {
	s := p.Summary()

	title := "ENRICHMENT SUMMARY"
	if s.Pipeline == KindArgo {
		title = "BGC-ARGO ENRICHMENT SUMMARY"
	}

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString(title + "\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Run ID: %s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Input: %s\n", filepath.Base(s.InputFile)))
	sb.WriteString(fmt.Sprintf("Output: %s\n", filepath.Base(s.OutputFile)))
	sb.WriteString(fmt.Sprintf("Enrichers Run: %s\n", strings.Join(s.EnrichersRun, ", ")))
	sb.WriteString(fmt.Sprintf("Total Changes: %d\n", s.TotalChanges))
	if len(s.Cleaning) > 0 {
		var parts []string
		for _, op := range cleaner.Operations(p.cleaning) {
			parts = append(parts, fmt.Sprintf("%s=%d", op, s.Cleaning[op]))
		}
		sb.WriteString(fmt.Sprintf("Cleaned On Load: %s\n", strings.Join(parts, ", ")))
	}

	for _, r := range p.results {
		sb.WriteString(fmt.Sprintf("\n%s:\n", strings.ToUpper(r.Enricher)))
		sb.WriteString(fmt.Sprintf("  Changes Made: %d\n", r.ChangesMade))
		sb.WriteString(fmt.Sprintf("  Issues Found: %d\n", r.IssuesFound))
		if len(r.Changes) > 0 {
			sb.WriteString("  Sample Changes:\n")
			for i, c := range r.Changes {
				if i == maxSamples {
					break
				}
				sb.WriteString(fmt.Sprintf("    • %s\n", c.Details))
			}
		}
	}

	if len(s.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("\nSkipped (unknown): %s\n", strings.Join(s.Skipped, ", ")))
	}
	if len(s.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range s.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}
	sb.WriteString(rule + "\n")
	return sb.String()
}
