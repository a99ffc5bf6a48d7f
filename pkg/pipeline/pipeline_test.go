package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/connector"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// writeFixture stores a sparse dataset with only a title and institution
func writeFixture(t *testing.T, store *connector.ConnectorFactory, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	ds := model.NewDataset(path)
	ds.Attrs.Set("title", "Coastal mooring CTD")
	ds.Attrs.Set("institution", "Oregon State University")
	require.NoError(t, ds.AddCoordinate(model.NewVariable("time", []string{"time"}, []int{3}, []float64{0, 60, 120})))
	require.NoError(t, ds.AddVariable(model.NewVariable("temperature", []string{"time"}, []int{3}, []float64{10.5, 11, 11.5})))
	require.NoError(t, ds.AddVariable(model.NewVariable("salinity", []string{"time"}, []int{3}, []float64{33.1, 33.2, 33.3})))

	require.NoError(t, store.Save(context.Background(), ds, path))
	return path
}

func writeArgoFixture(t *testing.T, store *connector.ConnectorFactory, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	ds := model.NewDataset(path)
	for _, v := range []*model.Variable{
		model.NewVariable("LATITUDE", []string{"N_PROF"}, []int{1}, []float64{-52.3}),
		model.NewVariable("LONGITUDE", []string{"N_PROF"}, []int{1}, []float64{140.1}),
		model.NewVariable("JULD", []string{"N_PROF"}, []int{1}, []float64{27000.5}),
		model.NewVariable("PRES", []string{"N_LEVELS"}, []int{4}, []float64{5, 10, 20, 40}),
		model.NewVariable("TEMP", []string{"N_LEVELS"}, []int{4}, []float64{8, 7.5, 6, 4}),
		model.NewVariable("PH_IN_SITU_TOTAL", []string{"N_LEVELS"}, []int{4}, []float64{8.1, 8.08, 8.05, 8.0}),
	} {
		require.NoError(t, ds.AddVariable(v))
	}
	require.NoError(t, store.Save(context.Background(), ds, path))
	return path
}

type brokenEnricher struct{}

func (brokenEnricher) Name() string { return "broken" }
func (brokenEnricher) Enrich(*model.Dataset) (*model.Dataset, error) {
	return nil, errors.New("index out of range")
}
func (brokenEnricher) Validate(*model.Dataset) bool { return true }
func (brokenEnricher) Summary() enrich.Summary     { return enrich.Summary{Enricher: "broken"} }

func withBroken(name string, deps enrich.Deps) (enrich.Enricher, error) {
	if name == "broken" {
		return brokenEnricher{}, nil
	}
	return enrich.New(name, deps)
}

func TestNewPipelineValidation(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())

	_, err := New(nil, store, enrich.Deps{}, "x.nc")
	assert.EqualError(t, err, "logger cannot be nil")
	_, err = New(zap.NewNop(), nil, enrich.Deps{}, "x.nc")
	assert.Error(t, err)
	_, err = NewArgo(zap.NewNop(), store, enrich.Deps{}, "")
	assert.Error(t, err)

	p, err := NewArgo(zap.NewNop(), store, enrich.Deps{}, "x.nc")
	require.NoError(t, err)
	assert.Equal(t, ArgoOrder, p.Order())
	assert.Equal(t, StateCreated, p.State())
	assert.NotEmpty(t, p.ID())
}

func TestGenericPipelineImprovesScore(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	assessor, err := assess.NewAssessor(zap.NewNop(), store)
	require.NoError(t, err)
	before, err := assessor.Assess(ctx, input)
	require.NoError(t, err)

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	summary, err := p.Execute(ctx, nil, "")
	require.NoError(t, err)

	output := filepath.Join(filepath.Dir(input), "mooring_enriched.json")
	assert.Equal(t, output, summary.OutputFile)
	assert.FileExists(t, output)
	assert.Equal(t, StateSaved, p.State())

	after, err := assessor.Assess(ctx, output)
	require.NoError(t, err)
	assert.Greater(t, after.Interoperable, before.Interoperable)
	assert.Greater(t, after.Reusable, before.Reusable)
	assert.GreaterOrEqual(t, after.Total, before.Total)

	assert.Equal(t, GenericOrder, summary.EnrichersRun)
	assert.Len(t, summary.Enrichers, 3)
	total := 0
	for _, s := range summary.Enrichers {
		total += s.ChangesMade
	}
	assert.Equal(t, total, summary.TotalChanges)
	assert.Positive(t, summary.TotalChanges)
	assert.Contains(t, summary.DurationsMS, "metadata")
	assert.Equal(t, input, summary.InputFile)
}

func TestPipelineSkipsUnknownEnricher(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), []string{"coordinate", "spelling", "metadata"})
	require.NoError(t, err)

	s := p.Summary()
	assert.Equal(t, []string{"coordinate", "metadata"}, s.EnrichersRun)
	assert.Equal(t, []string{"spelling"}, s.Skipped)
	assert.Contains(t, p.Report(), "Skipped (unknown): spelling")
}

func TestPipelineAbortWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	p.WithBuilder(withBroken)

	_, err = p.Run(ctx, []string{"coordinate", "broken", "metadata"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnricherFailed)
	assert.Equal(t, ErrorCategoryEnrichment, CategorizeError(err))

	var se StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "broken", se.Enricher)
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, []string{"coordinate"}, p.Summary().EnrichersRun)

	_, err = p.Save(ctx, "")
	assert.ErrorIs(t, err, ErrRunAborted)
	assert.NoFileExists(t, DefaultOutputPath(input))

	_, err = p.Run(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPipelineExecuteAbortWritesNothing(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")
	output := filepath.Join(t.TempDir(), "out", "enriched.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	p.WithBuilder(withBroken).WithOrder([]string{"broken"})

	_, err = p.Execute(context.Background(), nil, output)
	assert.ErrorIs(t, err, ErrEnricherFailed)
	assert.NoFileExists(t, output)
}

func TestPipelineLoadFailure(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	missing := filepath.Join(t.TempDir(), "missing.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, missing)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrDataLoad)
	assert.Equal(t, ErrorCategoryLoad, CategorizeError(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestPipelineStateGuards(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)

	_, err = p.Save(ctx, "")
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, p.Load(ctx))
	assert.ErrorIs(t, p.Load(ctx), ErrInvalidState)

	_, err = p.Run(ctx, []string{"variable"})
	require.NoError(t, err)
	out, err := p.Save(ctx, filepath.Join(t.TempDir(), "nested", "dir", "out.json"))
	require.NoError(t, err)
	assert.FileExists(t, out)

	_, err = p.Run(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = p.Save(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPipelineCancelledContext(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	require.NoError(t, p.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
}

func TestPipelineValidationWarningsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)

	// the fixture has no summary attribute, so metadata validation fails
	s, err := p.Execute(ctx, nil, "")
	require.NoError(t, err)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "metadata validation failed")
	assert.Equal(t, ErrorCategoryValidation, CategorizeError(p.ValidationErrors()))
	assert.FileExists(t, s.OutputFile)
}

func TestArgoPipeline(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeArgoFixture(t, store, "BD5904468_001.json")

	p, err := NewArgo(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	p.WithOutputDir(filepath.Join(t.TempDir(), "enriched"))

	s, err := p.Execute(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, ArgoOrder, s.EnrichersRun)
	assert.Equal(t, "BD5904468_001_enriched.json", filepath.Base(s.OutputFile))
	assert.FileExists(t, s.OutputFile)

	// no detector was configured, so the anomaly step only logs an issue
	assert.Zero(t, s.Enrichers["anomaly"].ChangesMade)
	assert.Equal(t, "missing_dependency", s.Enrichers["anomaly"].Issues[0].Type)

	out, err := store.Open(ctx, s.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "5904468", out.Attrs.String("wmo_platform_code"))
	assert.True(t, out.Attrs.Has("geospatial_lat_min"))
	assert.True(t, out.Attrs.Has("Conventions"))

	report := p.Report()
	assert.True(t, strings.Contains(report, "BGC-ARGO ENRICHMENT SUMMARY"))
	assert.Contains(t, report, "ARGO_METADATA:")
}

func TestReport(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), nil)
	require.NoError(t, err)

	report := p.Report()
	assert.Contains(t, report, "ENRICHMENT SUMMARY")
	assert.NotContains(t, report, "BGC-ARGO")
	assert.Contains(t, report, "Input: mooring.json")
	assert.Contains(t, report, "Output: mooring_enriched.json")
	assert.Contains(t, report, "Enrichers Run: coordinate, variable, metadata")
	assert.Contains(t, report, "METADATA:")
	assert.LessOrEqual(t, strings.Count(report, "    • "), 3*len(GenericOrder))
}

func TestWriteMetrics(t *testing.T) {
	store := connector.NewConnectorFactory(zap.NewNop())
	input := writeFixture(t, store, "mooring.json")

	p, err := New(zap.NewNop(), store, enrich.Deps{}, input)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics", "fair.prom")
	require.NoError(t, p.Metrics().WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `fair_enrich_runs_total{outcome="success",pipeline="generic"} 1`)
	assert.Contains(t, text, `fair_enrich_changes_total{enricher="metadata"}`)
	assert.Contains(t, text, `fair_enrich_issues_total{enricher="coordinate"}`)
	assert.Contains(t, text, `fair_enrich_duration_seconds_count{enricher="variable"} 1`)
	assert.Len(t, p.Timings(), 3)
}

func TestSharedMetrics(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	m := NewMetrics(zap.NewNop())

	for _, name := range []string{"first.json", "second.json"} {
		p, err := New(zap.NewNop(), store, enrich.Deps{}, writeFixture(t, store, name))
		require.NoError(t, err)
		p.WithMetrics(m)
		_, err = p.Run(ctx, nil)
		require.NoError(t, err)
		assert.Same(t, m, p.Metrics())
		assert.Len(t, p.Timings(), 3, "timings stay per run")
	}

	broken, err := New(zap.NewNop(), store, enrich.Deps{}, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	broken.WithMetrics(m)
	require.Error(t, broken.Load(ctx))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	runs := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "fair_enrich_runs_total" {
			continue
		}
		for _, series := range f.GetMetric() {
			for _, l := range series.GetLabel() {
				if l.GetName() == "outcome" {
					runs[l.GetValue()] = series.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{OutcomeSuccess: 2, OutcomeFailed: 1}, runs)
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data/file.nc", "data/file_enriched.nc"},
		{"profile.nc4", "profile_enriched.nc4"},
		{"noext", "noext_enriched"},
		{"a.b/c.json", "a.b/c_enriched.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOutputPath(tt.in))
		})
	}
}

func TestErrorCategoryString(t *testing.T) {
	assert.Equal(t, "Enrichment", ErrorCategoryEnrichment.String())
	assert.Equal(t, "Unknown(42)", ErrorCategory(42).String())

	var err error = stageError(ErrorCategorySave, os.ErrPermission)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, ErrorCategorySave, CategorizeError(err))
	assert.Equal(t, "[Save] Error: permission denied", err.Error())
}

func TestPipelineCleansOnLoad(t *testing.T) {
	ctx := context.Background()
	store := connector.NewConnectorFactory(zap.NewNop())
	path := filepath.Join(t.TempDir(), "padded.json")

	ds := model.NewDataset(path)
	ds.Attrs.Set("title", "Shelf mooring  ")
	require.NoError(t, ds.AddVariable(model.NewVariable("temperature", []string{"time"}, []int{2}, []float64{10, 11})))
	require.NoError(t, store.Save(ctx, ds, path))

	p, err := New(zap.NewNop(), store, enrich.Deps{}, path)
	require.NoError(t, err)
	require.NoError(t, p.Load(ctx))

	assert.Equal(t, "Shelf mooring", p.Dataset().Attrs.String("title"))
	assert.Equal(t, map[string]int{"attribute_trim": 1}, p.Summary().Cleaning)
	assert.Contains(t, p.Report(), "Cleaned On Load: attribute_trim=1")
}

// writeMooringNetCDF stores a sparse mooring record whose position and depth
// live only in global attributes
func writeMooringNetCDF(t *testing.T, store *connector.ConnectorFactory, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	ds := model.NewDataset(path)
	ds.Attrs.Set("title", "Coastal mooring CTD")
	ds.Attrs.Set("institution", "Oregon State University")
	ds.Attrs.Set("geospatial_lat_min", 44.6)
	ds.Attrs.Set("geospatial_lon_min", -124.3)
	ds.Attrs.Set("nominal_depth", 25.0)
	require.NoError(t, ds.AddCoordinate(model.NewVariable("time", []string{"time"}, []int{3}, []float64{0, 60, 120})))
	require.NoError(t, ds.AddVariable(model.NewVariable("temperature", []string{"time"}, []int{3}, []float64{10.5, 11, 11.5})))
	require.NoError(t, ds.AddVariable(model.NewVariable("salinity", []string{"time"}, []int{3}, []float64{33.1, 33.2, 33.3})))

	require.NoError(t, store.Save(context.Background(), ds, path))
	return path
}

func metric(metrics []assess.MetricScore, name string) (assess.MetricScore, bool) {
	for _, m := range metrics {
		if m.Name == name {
			return m, true
		}
	}
	return assess.MetricScore{}, false
}

func TestPipelinesOnNetCDF(t *testing.T) {
	type constructor func(*zap.Logger, DatasetStore, enrich.Deps, string) (*Pipeline, error)

	tests := []struct {
		name    string
		newPipe constructor
		write   func(t *testing.T, store *connector.ConnectorFactory) string
		minimum float64
		scalars map[string]float64
	}{
		{
			name:    "generic",
			newPipe: New,
			write: func(t *testing.T, store *connector.ConnectorFactory) string {
				return writeMooringNetCDF(t, store, "mooring.nc")
			},
			minimum: 60,
			scalars: map[string]float64{"lat": 44.6, "lon": -124.3, "depth": 25},
		},
		{
			name:    "argo",
			newPipe: NewArgo,
			write: func(t *testing.T, store *connector.ConnectorFactory) string {
				return writeArgoFixture(t, store, "BD5904468_001.nc")
			},
			minimum: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := connector.NewConnectorFactory(zap.NewNop())
			assessor, err := assess.NewAssessor(zap.NewNop(), store)
			require.NoError(t, err)

			input := tt.write(t, store)
			before, err := assessor.Assess(ctx, input)
			require.NoError(t, err)
			format, ok := metric(before.InteroperableDetails, "data_format")
			require.True(t, ok)
			assert.Equal(t, assess.StatusPass, format.Status)
			assert.Equal(t, format.PointsPossible, format.PointsEarned)
			assert.Equal(t, "F", before.Grade())

			first, err := tt.newPipe(zap.NewNop(), store, enrich.Deps{}, input)
			require.NoError(t, err)
			summary, err := first.Execute(ctx, nil, "")
			require.NoError(t, err)
			assert.Equal(t, DefaultOutputPath(input), summary.OutputFile)

			after, err := assessor.Assess(ctx, summary.OutputFile)
			require.NoError(t, err)
			assert.Greater(t, after.Total, before.Total)
			assert.GreaterOrEqual(t, after.Total, tt.minimum)
			assert.NotEqual(t, before.Grade(), after.Grade())

			saved, err := store.Open(ctx, summary.OutputFile)
			require.NoError(t, err)
			for name, want := range tt.scalars {
				v, ok := saved.Variable(name)
				require.True(t, ok, name)
				assert.True(t, v.Coordinate, "%s reads back as a coordinate", name)
				assert.Empty(t, v.Dims)
				assert.Equal(t, []float64{want}, v.Data)
			}

			second, err := tt.newPipe(zap.NewNop(), store, enrich.Deps{}, summary.OutputFile)
			require.NoError(t, err)
			_, err = second.Run(ctx, nil)
			require.NoError(t, err)
			for name, s := range second.Summary().Enrichers {
				if name == "metadata" {
					assert.Positive(t, s.ChangesMade, "metadata restamps history")
					continue
				}
				assert.Zero(t, s.ChangesMade, "%s changed an enriched file: %v", name, s.Changes)
			}
		})
	}
}
