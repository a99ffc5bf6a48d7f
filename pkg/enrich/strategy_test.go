package enrich

import (
	"testing"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
	"github.com/stretchr/testify/assert"
)

func taskNames(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name      string
		score     assess.FAIRScore
		want      []string
		gain      float64
		enrichers []string
	}{
		{
			name:  "low scores",
			score: assess.FAIRScore{Interoperable: 12, Reusable: 10},
			want: []string{
				"add_coordinate_variables",
				"add_variable_units",
				"add_standard_names",
				"document_qc_methodology",
				"enhance_global_metadata",
				"enhance_variable_metadata",
			},
			gain:      14,
			enrichers: []string{"coordinate", "variable", "metadata"},
		},
		{
			name:      "interoperable at threshold",
			score:     assess.FAIRScore{Interoperable: 24, Reusable: 10},
			want:      []string{"document_qc_methodology", "enhance_global_metadata", "enhance_variable_metadata"},
			gain:      4.5,
			enrichers: []string{"variable", "metadata"},
		},
		{
			name:      "good scores",
			score:     assess.FAIRScore{Interoperable: 30, Reusable: 25},
			want:      []string{"enhance_variable_metadata"},
			gain:      0.5,
			enrichers: []string{"variable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := Plan(tt.score)
			assert.Equal(t, tt.want, taskNames(tasks))
			assert.InDelta(t, tt.gain, EstimateImprovement(tasks), 1e-9)
			assert.Equal(t, tt.enrichers, PlanEnrichers(tasks))
			for i := 1; i < len(tasks); i++ {
				assert.LessOrEqual(t, int(tasks[i-1].Priority), int(tasks[i].Priority))
			}
		})
	}
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "unknown", Priority(9).String())
}
