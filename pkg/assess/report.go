// pkg/assess/report.go
package assess

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Recommendation is one prioritised group of improvement actions
type Recommendation struct {
	Priority string   `json:"priority"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// recommendationRule fires when a principle is below 80% of its allocation
type recommendationRule struct {
	principle Principle
	threshold float64
	priority  string
	category  string
	items     []string
}

var recommendationRules = []recommendationRule{
	{Findable, 20, "critical", "Findability", []string{
		"Add unique persistent identifier",
		"Improve descriptive metadata",
		"Add search-enabling metadata (geo bounds, time coverage)",
	}},
	{Accessible, 16, "high", "Accessibility", []string{
		"Add contact information",
		"Specify data access constraints/license",
		"Provide access protocol information",
	}},
	{Interoperable, 24, "critical", "Interoperability", []string{
		"Achieve CF compliance",
		"Use standard variable names",
		"Define coordinate systems clearly",
	}},
	{Reusable, 20, "high", "Reusability", []string{
		"Add clear data license",
		"Document data provenance",
		"Include quality control information",
	}},
}

// Recommendations lists improvement actions for every principle scoring
// below 80% of its allocation.
func Recommendations(score FAIRScore) []Recommendation {
	out := []Recommendation{}
	for _, r := range recommendationRules {
		if score.PrincipleScore(r.principle) < r.threshold {
			out = append(out, Recommendation{
				Priority: r.priority,
				Category: r.category,
				Items:    append([]string(nil), r.items...),
			})
		}
	}
	return out
}

// Report is the serialised form of an assessment
type Report struct {
	Dataset         string                 `json:"dataset"`
	Timestamp       string                 `json:"timestamp"`
	Summary         ReportSummary          `json:"summary"`
	Details         map[string][]MetricRow `json:"details"`
	Recommendations []Recommendation       `json:"recommendations"`
}

// ReportSummary holds the rounded headline scores
type ReportSummary struct {
	TotalScore    float64 `json:"total_score"`
	Grade         string  `json:"grade"`
	Findable      float64 `json:"findable"`
	Accessible    float64 `json:"accessible"`
	Interoperable float64 `json:"interoperable"`
	Reusable      float64 `json:"reusable"`
}

// MetricRow is one metric in a report
type MetricRow struct {
	Name           string   `json:"name"`
	PointsEarned   float64  `json:"points_earned"`
	PointsPossible float64  `json:"points_possible"`
	Percentage     float64  `json:"percentage"`
	Status         Status   `json:"status"`
	Details        string   `json:"details"`
	Issues         []string `json:"issues"`
}

// BuildReport converts a score into its report form
func BuildReport(score FAIRScore) Report {
	r := Report{
		Dataset:   score.Dataset,
		Timestamp: reportTimestamp(score.Dataset),
		Summary: ReportSummary{
			TotalScore:    round(score.Total, 2),
			Grade:         score.Grade(),
			Findable:      round(score.Findable, 2),
			Accessible:    round(score.Accessible, 2),
			Interoperable: round(score.Interoperable, 2),
			Reusable:      round(score.Reusable, 2),
		},
		Details:         make(map[string][]MetricRow, len(Principles)),
		Recommendations: Recommendations(score),
	}
	for _, p := range Principles {
		rows := []MetricRow{}
		for _, m := range score.Details(p) {
			issues := m.Issues
			if issues == nil {
				issues = []string{}
			}
			rows = append(rows, MetricRow{
				Name:           m.Name,
				PointsEarned:   round(m.PointsEarned, 2),
				PointsPossible: m.PointsPossible,
				Percentage:     round(m.Percentage(), 1),
				Status:         m.Status,
				Details:        m.Details,
				Issues:         issues,
			})
		}
		r.Details[string(p)] = rows
	}
	return r
}

// GenerateReport writes the JSON report to outputPath and returns the path,
// or returns the JSON text when outputPath is empty.
func (a *Assessor) GenerateReport(score FAIRScore, outputPath string) (string, error) {
	raw, err := json.MarshalIndent(BuildReport(score), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if outputPath == "" {
		return string(raw), nil
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Info("Report saved", zap.String("path", outputPath))
	return outputPath, nil
}

// reportTimestamp is the dataset's modification time, or now when the file
// is not on disk.
func reportTimestamp(path string) string {
	if path != "" {
		if info, err := os.Stat(path); err == nil {
			return info.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
