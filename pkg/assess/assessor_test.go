package assess

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAssessor(t *testing.T) *Assessor {
	t.Helper()
	a, err := NewAssessor(zap.NewNop(), nil)
	require.NoError(t, err)
	return a
}

func series(name string, attrs map[string]interface{}) *model.Variable {
	v := model.NewVariable(name, []string{"obs"}, []int{3}, []float64{1, 2, 3})
	for k, val := range attrs {
		v.Attrs.Set(k, val)
	}
	return v
}

func completeDataset(t *testing.T) *model.Dataset {
	t.Helper()
	ds := model.NewDataset("complete.nc")
	for _, kv := range [][2]string{
		{"id", "ooi-ce02shsm"},
		{"title", "CE02SHSM CTD"},
		{"summary", "Near-surface CTD"},
		{"keywords", "ocean, ctd"},
		{"creator_name", "OOI"},
		{"institution", "OSU"},
		{"project", "OOI"},
		{"geospatial_lat_min", "44.6"},
		{"geospatial_lat_max", "44.6"},
		{"geospatial_lon_min", "-124.3"},
		{"geospatial_lon_max", "-124.3"},
		{"time_coverage_start", "2024-01-01T00:00:00Z"},
		{"time_coverage_end", "2024-02-01T00:00:00Z"},
		{"Conventions", "CF-1.6, ACDD-1.3"},
		{"sourceUrl", "https://ooinet.oceanobservatories.org"},
		{"creator_email", "help@oceanobservatories.org"},
		{"license", "CC-BY-4.0"},
		{"references", "https://oceanobservatories.org"},
		{"source", "OOI Coastal Endurance Array"},
		{"processing_level", "L1"},
		{"history", "created"},
		{"creator_institution", "OSU"},
		{"date_created", "2024-02-01T00:00:00Z"},
		{"featureType", "timeSeries"},
		{"cdm_data_type", "Station"},
		{"quality_control_method", "QARTOD"},
	} {
		ds.Attrs.Set(kv[0], kv[1])
	}
	for _, name := range []string{"time", "lat", "lon", "depth"} {
		require.NoError(t, ds.AddCoordinate(series(name, nil)))
	}
	std := map[string]interface{}{"units": "degree_C", "standard_name": "sea_water_temperature"}
	require.NoError(t, ds.AddVariable(series("temperature", std)))
	require.NoError(t, ds.AddVariable(series("temperature_qc", std)))
	return ds
}

func metric(t *testing.T, s FAIRScore, p Principle, name string) MetricScore {
	t.Helper()
	for _, m := range s.Details(p) {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s not found", name)
	return MetricScore{}
}

func TestNewAssessorRequiresLogger(t *testing.T) {
	_, err := NewAssessor(nil, nil)
	assert.Error(t, err)
}

func TestGradeBoundaries(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{100, "A"},
		{90.0, "A"},
		{89.99, "B"},
		{80.0, "B"},
		{79.99, "C"},
		{70.0, "C"},
		{69.99, "D"},
		{60.0, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FAIRScore{Total: tt.total}.Grade(), "total %.2f", tt.total)
	}
}

func TestRubricTotals(t *testing.T) {
	assert.Equal(t, 25.0, PossiblePoints(Findable))
	assert.Equal(t, 20.0, PossiblePoints(Accessible))
	assert.Equal(t, 30.0, PossiblePoints(Interoperable))
	assert.Equal(t, 25.0, PossiblePoints(Reusable))

	var alloc float64
	for _, p := range Principles {
		alloc += p.Allocation()
	}
	assert.Equal(t, 100.0, alloc)

	r := Rubric(Findable)
	r[0].Required[0] = "mutated"
	assert.Equal(t, "id", Rubric(Findable)[0].Required[0])
}

func TestCompleteDatasetScoresFullMarks(t *testing.T) {
	score := newAssessor(t).AssessDataset(completeDataset(t))

	assert.InDelta(t, 100.0, score.Total, 1e-9)
	assert.Equal(t, "A", score.Grade())
	for _, p := range Principles {
		for _, m := range score.Details(p) {
			assert.Equal(t, StatusPass, m.Status, m.Name)
		}
	}
	assert.Empty(t, Recommendations(score))
}

func TestMostPolicyTwoOfThreeIsPartial(t *testing.T) {
	ds := model.NewDataset("x.nc")
	ds.Attrs.Set("Conventions", "CF-1.6")
	ds.Attrs.Set("featureType", "timeSeries")

	m := metric(t, newAssessor(t).AssessDataset(ds), Reusable, "community_standards")
	assert.Equal(t, StatusPartial, m.Status)
	assert.InDelta(t, 5.0*2/3, m.PointsEarned, 1e-9)
	assert.Equal(t, "Missing: cdm_data_type", m.Details)
	assert.Equal(t, []string{"cdm_data_type"}, m.Issues)
}

func TestAttributePolicies(t *testing.T) {
	ds := model.NewDataset("x.nc")
	ds.Attrs.Set("doi", "10.1234/abc")
	ds.Attrs.Set("title", "t")
	ds.Attrs.Set("summary", "s")
	ds.Attrs.Set("source", "a")
	ds.Attrs.Set("history", "b")
	ds.Attrs.Set("date_created", "c")
	ds.Attrs.Set("processing_level", "d")
	score := newAssessor(t).AssessDataset(ds)

	id := metric(t, score, Findable, "unique_identifier")
	assert.Equal(t, StatusPass, id.Status)
	assert.Equal(t, "Found: doi", id.Details)
	assert.Equal(t, []string{"id", "uuid", "identifier"}, id.Issues)

	rich := metric(t, score, Findable, "rich_metadata")
	assert.Equal(t, StatusPartial, rich.Status)
	assert.InDelta(t, 10.0*2/6, rich.PointsEarned, 1e-9)

	contact := metric(t, score, Accessible, "contact_info")
	assert.Equal(t, StatusFail, contact.Status)
	assert.Equal(t, 0.0, contact.PointsEarned)
	assert.Equal(t, "Missing: creator_email, publisher_email, contact", contact.Details)

	prov := metric(t, score, Reusable, "data_provenance")
	assert.Equal(t, StatusPass, prov.Status)
	assert.Equal(t, "Found 4/5 attributes", prov.Details)
	assert.Equal(t, 8.0, prov.PointsEarned)
}

func TestCFComplianceSubScores(t *testing.T) {
	ds := model.NewDataset("x.nc")
	ds.Attrs.Set("Conventions", "CF-1.6")
	require.NoError(t, ds.AddCoordinate(series("time", nil)))
	require.NoError(t, ds.AddVariable(series("salinity", map[string]interface{}{"units": "1"})))

	m := metric(t, newAssessor(t).AssessDataset(ds), Interoperable, "cf_compliance")
	assert.InDelta(t, 9.0, m.PointsEarned, 1e-9)
	assert.Equal(t, StatusPartial, m.Status)
	assert.Equal(t, "CF compliance: 60.0%", m.Details)
	assert.Equal(t, []string{
		"Incomplete coordinate variables",
		"Less than 50% of variables have standard_name",
	}, m.Issues)
}

func TestCFComplianceWithoutConventions(t *testing.T) {
	ds := model.NewDataset("x.nc")
	ds.Attrs.Set("Conventions", "ACDD-1.3")
	require.NoError(t, ds.AddVariable(series("salinity", nil)))

	m := metric(t, newAssessor(t).AssessDataset(ds), Interoperable, "cf_compliance")
	assert.Equal(t, 0.0, m.PointsEarned)
	assert.Equal(t, StatusFail, m.Status)
	assert.Contains(t, m.Issues, "Conventions attribute doesn't mention CF")
	assert.Contains(t, m.Issues, "1 variables missing units")
	assert.Contains(t, m.Issues, "Missing coordinate variables")
}

func TestZeroVariablesDegradeGracefully(t *testing.T) {
	ds := model.NewDataset("empty.nc")
	score := newAssessor(t).AssessDataset(ds)

	vocab := metric(t, score, Interoperable, "standard_vocabulary")
	assert.Equal(t, StatusFail, vocab.Status)
	assert.Equal(t, "No variables found", vocab.Details)
	assert.Empty(t, vocab.Issues)

	coords := metric(t, score, Interoperable, "coordinate_system")
	assert.Equal(t, "Found 0/4 coordinates", coords.Details)
	assert.Len(t, coords.Issues, 4)

	assert.Len(t, Recommendations(score), 4)
}

func TestVariableIssuesAreCapped(t *testing.T) {
	ds := model.NewDataset("x.nc")
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		require.NoError(t, ds.AddVariable(series(name, nil)))
	}
	m := metric(t, newAssessor(t).AssessDataset(ds), Interoperable, "standard_vocabulary")
	assert.Len(t, m.Issues, 5)
	assert.Equal(t, "0/7 variables have standard attributes", m.Details)
}

func TestDataFormatAndQualityControl(t *testing.T) {
	ds := model.NewDataset("dump.json")
	require.NoError(t, ds.AddVariable(series("ph_qartod_results", nil)))
	score := newAssessor(t).AssessDataset(ds)

	format := metric(t, score, Interoperable, "data_format")
	assert.Equal(t, StatusFail, format.Status)
	assert.Equal(t, "Non-standard format: .json", format.Details)

	qc := metric(t, score, Reusable, "quality_control")
	assert.Equal(t, 4.0, qc.PointsEarned)
	assert.Equal(t, StatusPartial, qc.Status)
	assert.Equal(t, []string{"No QC methodology documentation"}, qc.Issues)
}

func TestRubricSumInvariant(t *testing.T) {
	a := newAssessor(t)
	for _, ds := range []*model.Dataset{model.NewDataset("a.nc"), completeDataset(t)} {
		s := a.AssessDataset(ds)
		assert.InDelta(t, s.Total, s.Findable+s.Accessible+s.Interoperable+s.Reusable, 0.01)
	}
}

func TestAssessMissingFile(t *testing.T) {
	_, err := newAssessor(t).Assess(context.Background(), filepath.Join(t.TempDir(), "nope.nc"))
	assert.ErrorIs(t, err, ErrAssessment)
}

func TestGenerateReport(t *testing.T) {
	a := newAssessor(t)
	score := a.AssessDataset(model.NewDataset("empty.nc"))

	text, err := a.GenerateReport(score, "")
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal([]byte(text), &report))
	assert.Equal(t, "empty.nc", report.Dataset)
	assert.Equal(t, "F", report.Summary.Grade)
	assert.Len(t, report.Details["interoperable"], 4)
	assert.Len(t, report.Recommendations, 4)
	assert.Equal(t, "critical", report.Recommendations[0].Priority)

	path := filepath.Join(t.TempDir(), "reports", "fair.json")
	got, err := a.GenerateReport(score, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved Report
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, report.Summary, saved.Summary)
	assert.Equal(t, report.Details, saved.Details)
}

func TestParseCFResults(t *testing.T) {
	raw := []byte(`{"cf": {
		"scored_points": 40, "possible_points": 50,
		"all_priorities": [
			{"name": "§2.6 Attributes", "weight": 3, "value": [1, 2], "msgs": ["Conventions missing"]},
			{"name": "§3.1 Units", "weight": 2, "value": [3, 4], "msgs": []},
			{"name": "§3.3 Standard Name", "weight": 2, "value": [2, 2], "msgs": []},
			{"name": "§2.3 Naming", "priority": "LOW", "value": [0, 1], "msgs": ["bad name"]}
		]}}`)

	res, err := ParseCFResults(raw, "cf")
	require.NoError(t, err)

	s := res.Summary()
	assert.InDelta(t, 80.0, s.Percentage, 1e-9)
	assert.Equal(t, 1, s.High)
	assert.Equal(t, 2, s.Medium)
	assert.Equal(t, 1, s.Low)
	assert.Equal(t, 4, s.Total)

	assert.Len(t, res.Violations("all"), 3)
	assert.Len(t, res.Violations("medium"), 1)

	recs := res.Recommendations(2)
	require.Len(t, recs, 2)
	assert.Equal(t, CFRecommendation{Priority: "high", Check: "§2.6 Attributes", Message: "Conventions missing"}, recs[0])
	assert.Equal(t, "See CF conventions documentation", recs[1].Message)

	_, err = ParseCFResults(raw, "acdd")
	assert.ErrorIs(t, err, ErrComplianceCheck)
}
