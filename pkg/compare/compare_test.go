package compare

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/connector"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/pipeline"
)

type fakeAssessor map[string]assess.FAIRScore

func (f fakeAssessor) Assess(_ context.Context, path string) (assess.FAIRScore, error) {
	s, ok := f[path]
	if !ok {
		return assess.FAIRScore{}, errors.New("no such dataset")
	}
	return s, nil
}

func score(f, a, i, r float64) assess.FAIRScore {
	return assess.FAIRScore{Findable: f, Accessible: a, Interoperable: i, Reusable: r, Total: f + a + i + r}
}

func TestBuild(t *testing.T) {
	cmp := Build("a.nc", score(10, 5, 12, 8), "a_enriched.nc", score(15, 10, 22, 18))

	assert.InDelta(t, 30.0, cmp.Improvements.TotalScore, 1e-9)
	assert.Equal(t, "F → D", cmp.Improvements.GradeChange)
	assert.InDelta(t, 10.0, cmp.Improvements.Delta(assess.Interoperable), 1e-9)
	assert.InDelta(t, 5.0, cmp.Improvements.Findable, 1e-9)
	assert.Equal(t, 22.0, cmp.Enriched.Score(assess.Interoperable))
	assert.Equal(t, "F", cmp.Original.Grade)
	assert.Equal(t, VerdictImproved, cmp.Verdict())
	assert.True(t, cmp.GradeImproved())
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name   string
		before assess.FAIRScore
		after  assess.FAIRScore
		want   Verdict
	}{
		{"improved", score(10, 10, 10, 10), score(10, 10, 12, 10), VerdictImproved},
		{"unchanged", score(20, 20, 20, 20), score(20, 20, 20, 20), VerdictUnchanged},
		{"decreased", score(20, 20, 20, 20), score(20, 20, 19, 20), VerdictDecreased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build("a", tt.before, "b", tt.after).Verdict())
		})
	}
}

func TestCompareDatasets(t *testing.T) {
	fake := fakeAssessor{
		"in.nc":  score(10, 5, 12, 8),
		"out.nc": score(20, 15, 25, 20),
	}

	cmp, err := CompareDatasets(context.Background(), fake, "in.nc", "out.nc")
	require.NoError(t, err)
	assert.InDelta(t, 45.0, cmp.Improvements.TotalScore, 1e-9)
	assert.Equal(t, "in.nc", cmp.Original.Path)
	assert.Equal(t, "out.nc", cmp.Enriched.Path)
	assert.False(t, cmp.ComparedAt.IsZero())

	_, err = CompareDatasets(context.Background(), fake, "missing.nc", "out.nc")
	assert.ErrorContains(t, err, "failed to assess original dataset")
	_, err = CompareDatasets(context.Background(), fake, "in.nc", "missing.nc")
	assert.ErrorContains(t, err, "failed to assess enriched dataset")

	_, err = NewComparator(nil, fake)
	assert.EqualError(t, err, "logger cannot be nil")
	_, err = NewComparator(zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out := Render(Build("data/in.nc", score(10, 5, 12, 8), "data/out.nc", score(20, 15, 25, 20)))

	assert.Contains(t, out, "FAIR SCORE COMPARISON")
	assert.Contains(t, out, "out.nc")
	assert.Contains(t, out, "Original:  35.0/100 (Grade: F)")
	assert.Contains(t, out, "+45.0 points (F → B)")
	assert.Contains(t, out, "Interoperable")
	assert.Contains(t, out, "(+13.0) ▲")
	assert.Contains(t, out, "Enrichment successful")
	assert.Contains(t, out, "Grade improved from F to B")

	same := Render(Build("a", score(20, 20, 20, 20), "b", score(20, 20, 20, 20)))
	assert.Contains(t, same, "No change in FAIR score")

	worse := Render(Build("a", score(20, 20, 20, 20), "b", score(20, 20, 10, 20)))
	assert.Contains(t, worse, "FAIR score decreased")
	assert.Contains(t, worse, "(-10.0) ▼")
}

type fakeChecker map[string]assess.CFResults

func (f fakeChecker) Check(_ context.Context, path, _ string) (assess.CFResults, error) {
	r, ok := f[path]
	if !ok {
		return assess.CFResults{}, assess.ErrComplianceCheck
	}
	return r, nil
}

func TestCompareCF(t *testing.T) {
	checker := fakeChecker{
		"in.nc": {ScoredPoints: 50, PossiblePoints: 100, AllPriorities: []assess.CFCheck{
			{Name: "units", Priority: "high", Value: []float64{0, 1}},
			{Name: "standard_name", Priority: "medium", Value: []float64{0, 1}},
			{Name: "history", Priority: "low", Value: []float64{0, 1}},
		}},
		"out.nc": {ScoredPoints: 80, PossiblePoints: 100, AllPriorities: []assess.CFCheck{
			{Name: "history", Priority: "low", Value: []float64{0, 1}},
		}},
	}

	c, err := NewComparator(zap.NewNop(), fakeAssessor{})
	require.NoError(t, err)

	cmp, err := c.CompareCF(context.Background(), checker, "in.nc", "out.nc", "cf")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, cmp.Dataset1.Score, 1e-9)
	assert.InDelta(t, 30.0, cmp.Improvement, 1e-9)
	assert.Equal(t, 2, cmp.IssuesFixed)
	assert.Contains(t, RenderCF(cmp), "Issues fixed: 2")

	_, err = c.CompareCF(context.Background(), checker, "in.nc", "gone.nc", "cf")
	assert.ErrorIs(t, err, assess.ErrComplianceCheck)
	_, err = c.CompareCF(context.Background(), nil, "in.nc", "out.nc", "cf")
	assert.ErrorIs(t, err, assess.ErrComplianceCheck)
}

func TestEnrichmentNeverLowersScore(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())

	fixtures := map[string]func(ds *model.Dataset){
		"bare.json": func(ds *model.Dataset) {},
		"titled.json": func(ds *model.Dataset) {
			ds.Attrs.Set("title", "Shelf mooring")
			ds.Attrs.Set("institution", "OOI")
		},
		"located.json": func(ds *model.Dataset) {
			ds.Attrs.Set("lat", 44.6)
			ds.Attrs.Set("lon", -124.3)
			ds.Attrs.Set("license", "CC-BY-4.0")
			ds.Attrs.Set("Conventions", "ACDD-1.3")
		},
	}

	assessor, err := assess.NewAssessor(zap.NewNop(), store)
	require.NoError(t, err)

	for name, setup := range fixtures {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			ds := model.NewDataset(path)
			setup(ds)
			require.NoError(t, ds.AddCoordinate(model.NewVariable("time", []string{"time"}, []int{2}, []float64{0, 60})))
			require.NoError(t, ds.AddVariable(model.NewVariable("oxygen", []string{"time"}, []int{2}, []float64{210, 215})))
			require.NoError(t, ds.AddVariable(model.NewVariable("oxygen_qc", []string{"time"}, []int{2}, []float64{1, 1})))
			require.NoError(t, store.Save(ctx, ds, path))

			p, err := pipeline.New(zap.NewNop(), store, enrich.Deps{}, path)
			require.NoError(t, err)
			summary, err := p.Execute(ctx, nil, "")
			require.NoError(t, err)

			cmp, err := CompareDatasets(ctx, assessor, path, summary.OutputFile)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cmp.Improvements.TotalScore, 0.0)
			assert.NotEqual(t, VerdictDecreased, cmp.Verdict())
		})
	}
}
