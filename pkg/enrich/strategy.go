// pkg/enrich/strategy.go
package enrich

import (
	"sort"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
)

// Priority orders enrichment tasks; lower runs first
type Priority int

const (
	PriorityCritical Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// Task is one planned enrichment step
type Task struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	ScoreGain   float64  `json:"target_score_gain"`
	Metrics     []string `json:"affects_metrics"`
	Enricher    string   `json:"enricher"`
}

var (
	taskCoordinates = Task{
		Name:        "add_coordinate_variables",
		Description: "Add missing lat/lon coordinate variables",
		Priority:    PriorityCritical,
		ScoreGain:   2.5,
		Metrics:     []string{"coordinate_system", "cf_compliance"},
		Enricher:    "coordinate",
	}
	taskUnits = Task{
		Name:        "add_variable_units",
		Description: "Add units attribute to all variables",
		Priority:    PriorityCritical,
		ScoreGain:   4.0,
		Metrics:     []string{"cf_compliance", "standard_vocabulary"},
		Enricher:    "variable",
	}
	taskStandardNames = Task{
		Name:        "add_standard_names",
		Description: "Add CF standard_name to variables",
		Priority:    PriorityHigh,
		ScoreGain:   3.0,
		Metrics:     []string{"cf_compliance", "standard_vocabulary"},
		Enricher:    "variable",
	}
	taskGlobalMetadata = Task{
		Name:        "enhance_global_metadata",
		Description: "Add missing global attributes (DOI, creator_institution)",
		Priority:    PriorityMedium,
		ScoreGain:   1.0,
		Metrics:     []string{"findable", "reusable"},
		Enricher:    "metadata",
	}
	taskQCDocumentation = Task{
		Name:        "document_qc_methodology",
		Description: "Add QC methodology documentation",
		Priority:    PriorityMedium,
		ScoreGain:   3.0,
		Metrics:     []string{"quality_control", "reusable"},
		Enricher:    "metadata",
	}
	taskVariableMetadata = Task{
		Name:        "enhance_variable_metadata",
		Description: "Add long_name, valid_min/max, etc.",
		Priority:    PriorityLow,
		ScoreGain:   0.5,
		Metrics:     []string{"standard_vocabulary"},
		Enricher:    "variable",
	}
)

// Plan picks enrichment tasks from an assessment: CF fixes when
// interoperability is below 24 points, documentation when reusability is
// below 20, and variable metadata always. Tasks are ordered by priority.
func Plan(score assess.FAIRScore) []Task {
	var tasks []Task
	if score.Interoperable < 24 {
		tasks = append(tasks, taskCoordinates, taskUnits, taskStandardNames)
	}
	if score.Reusable < 20 {
		tasks = append(tasks, taskQCDocumentation, taskGlobalMetadata)
	}
	tasks = append(tasks, taskVariableMetadata)

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})
	return tasks
}

// EstimateImprovement sums the expected score gain of the tasks
func EstimateImprovement(tasks []Task) float64 {
	var total float64
	for _, t := range tasks {
		total += t.ScoreGain
	}
	return total
}

// PlanEnrichers returns the distinct enrichers the tasks need, in the
// order the generic pipeline runs them.
func PlanEnrichers(tasks []Task) []string {
	need := make(map[string]bool)
	for _, t := range tasks {
		need[t.Enricher] = true
	}
	var out []string
	for _, name := range []string{"coordinate", "variable", "metadata"} {
		if need[name] {
			out = append(out, name)
		}
	}
	return out
}
