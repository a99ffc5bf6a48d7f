// pkg/assess/assessor.go
package assess

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/connector"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
	"go.uber.org/zap"
)

// ErrAssessment is returned when a dataset cannot be assessed
var ErrAssessment = errors.New("cannot assess dataset")

// DatasetOpener loads a dataset from a path
type DatasetOpener interface {
	Open(ctx context.Context, path string) (*model.Dataset, error)
}

// Assessor scores datasets against the FAIR rubric
type Assessor struct {
	logger *zap.Logger
	opener DatasetOpener
}

// NewAssessor creates an assessor that loads datasets through opener
func NewAssessor(logger *zap.Logger, opener DatasetOpener) (*Assessor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opener == nil {
		opener = connector.NewConnectorFactory(logger)
	}
	return &Assessor{
		logger: logger.Named("assessor"),
		opener: opener,
	}, nil
}

// Assess loads the dataset at path and scores it. A load failure aborts the
// assessment without a partial score.
func (a *Assessor) Assess(ctx context.Context, path string) (FAIRScore, error) {
	a.logger.Info("Starting FAIR assessment", zap.String("dataset", filepath.Base(path)))

	ds, err := a.opener.Open(ctx, path)
	if err != nil {
		a.logger.Error("Failed to load dataset", zap.String("path", path), zap.Error(err))
		return FAIRScore{}, fmt.Errorf("%w: %w", ErrAssessment, err)
	}
	return a.AssessDataset(ds), nil
}

// AssessDataset scores an in-memory dataset. Its Path drives the data format
// metric.
func (a *Assessor) AssessDataset(ds *model.Dataset) FAIRScore {
	a.logger.Debug("Dataset loaded",
		zap.Int("variables", len(ds.DataVars())),
		zap.Int("global_attributes", ds.Attrs.Len()))

	e := evaluator{ds: ds, data: ds.DataVars()}

	score := FAIRScore{
		Dataset:              ds.Path,
		FindableDetails:      e.attributeMetrics(Findable),
		AccessibleDetails:    e.attributeMetrics(Accessible),
		InteroperableDetails: e.interoperable(),
		ReusableDetails:      e.reusable(),
	}
	score.Findable = principleScore(Findable, score.FindableDetails)
	score.Accessible = principleScore(Accessible, score.AccessibleDetails)
	score.Interoperable = principleScore(Interoperable, score.InteroperableDetails)
	score.Reusable = principleScore(Reusable, score.ReusableDetails)
	score.Total = score.Findable + score.Accessible + score.Interoperable + score.Reusable

	for _, p := range Principles {
		for _, m := range score.Details(p) {
			a.logger.Debug("Metric scored",
				zap.String("principle", string(p)),
				zap.String("metric", m.Name),
				zap.Float64("earned", m.PointsEarned),
				zap.Float64("possible", m.PointsPossible))
		}
	}

	a.logger.Info("Assessment complete",
		zap.String("dataset", filepath.Base(ds.Path)),
		zap.Float64("total_score", score.Total),
		zap.String("grade", score.Grade()),
		zap.Float64("findable", score.Findable),
		zap.Float64("accessible", score.Accessible),
		zap.Float64("interoperable", score.Interoperable),
		zap.Float64("reusable", score.Reusable))
	return score
}

// evaluator holds one dataset while its metrics are computed
type evaluator struct {
	ds   *model.Dataset
	data []*model.Variable
}

func (e evaluator) attributeMetrics(p Principle) []MetricScore {
	defs := Rubric(p)
	out := make([]MetricScore, 0, len(defs))
	for _, def := range defs {
		out = append(out, e.attributeMetric(def, e.ds.Attrs))
	}
	return out
}

func (e evaluator) interoperable() []MetricScore {
	return []MetricScore{
		e.cfCompliance(),
		e.variableAttribute(definition(Interoperable, "standard_vocabulary")),
		e.dataFormat(),
		e.coordinateSystem(),
	}
}

func (e evaluator) reusable() []MetricScore {
	return []MetricScore{
		e.attributeMetric(definition(Reusable, "clear_license"), e.ds.Attrs),
		e.attributeMetric(definition(Reusable, "data_provenance"), e.ds.Attrs),
		e.qualityControl(),
		e.attributeMetric(definition(Reusable, "community_standards"), e.ds.Attrs),
	}
}

// attributeMetric applies the any/all/most presence policies. Missing
// attributes are always reported as issues, even on a pass.
func (e evaluator) attributeMetric(def MetricDefinition, attrs *model.Attrs) MetricScore {
	if def.Check == CheckVariables {
		return e.variableAttribute(def)
	}

	var found, missing []string
	for _, name := range def.Required {
		if attrs.Has(name) {
			found = append(found, name)
		} else {
			missing = append(missing, name)
		}
	}

	m := MetricScore{Name: def.Name, PointsPossible: def.Points, Issues: []string{}}
	if len(missing) > 0 {
		m.Issues = missing
	}
	partial := func() {
		m.PointsEarned = float64(len(found)) / float64(len(def.Required)) * def.Points
		m.Status = StatusFail
		if len(found) > 0 {
			m.Status = StatusPartial
		}
		m.Details = "Missing: " + strings.Join(missing, ", ")
	}

	switch def.Check {
	case CheckAny:
		if len(found) > 0 {
			m.PointsEarned = def.Points
			m.Status = StatusPass
			m.Details = "Found: " + strings.Join(found, ", ")
		} else {
			m.Status = StatusFail
			m.Details = "Missing: " + strings.Join(missing, ", ")
		}
	case CheckAll:
		if len(missing) == 0 {
			m.PointsEarned = def.Points
			m.Status = StatusPass
			m.Details = "All required attributes present"
		} else {
			partial()
		}
	case CheckMost:
		if float64(len(found)) >= float64(len(def.Required))*mostThreshold {
			m.PointsEarned = def.Points
			m.Status = StatusPass
			m.Details = fmt.Sprintf("Found %d/%d attributes", len(found), len(def.Required))
		} else {
			partial()
		}
	default:
		m.Status = StatusFail
		m.Details = fmt.Sprintf("Unknown check type: %s", def.Check)
	}
	return m
}

// maxVariableIssues caps the per-variable issues listed by a metric
const maxVariableIssues = 5

func (e evaluator) variableAttribute(def MetricDefinition) MetricScore {
	m := MetricScore{Name: def.Name, PointsPossible: def.Points, Issues: []string{}}
	if len(e.data) == 0 {
		m.Status = StatusFail
		m.Details = "No variables found"
		return m
	}

	passing := 0
	for _, v := range e.data {
		if v.Attrs.HasAny(def.Required...) {
			passing++
			continue
		}
		if len(m.Issues) < maxVariableIssues {
			m.Issues = append(m.Issues, v.Name+" missing standard attributes")
		}
	}

	ratio := float64(passing) / float64(len(e.data))
	m.PointsEarned = ratio * def.Points
	switch {
	case ratio >= 0.9:
		m.Status = StatusPass
	case ratio >= 0.5:
		m.Status = StatusPartial
	default:
		m.Status = StatusFail
	}
	m.Details = fmt.Sprintf("%d/%d variables have standard attributes", passing, len(e.data))
	return m
}

// cfCompliance scores conventions (3), units (4), coordinates (4) and
// standard names (4).
func (e evaluator) cfCompliance() MetricScore {
	def := definition(Interoperable, "cf_compliance")
	var earned float64
	issues := []string{}

	if e.ds.Attrs.Has("Conventions") {
		if strings.Contains(e.ds.Attrs.String("Conventions"), "CF") {
			earned += 3
		} else {
			issues = append(issues, "Conventions attribute doesn't mention CF")
		}
	} else {
		issues = append(issues, "Missing Conventions attribute")
	}

	if len(e.data) > 0 {
		withUnits := e.countWith("units")
		ratio := float64(withUnits) / float64(len(e.data))
		earned += ratio * 4
		if ratio < 1 {
			issues = append(issues, fmt.Sprintf("%d variables missing units", len(e.data)-withUnits))
		}
	}

	matches := 0
	for _, v := range e.ds.Variables() {
		if containsAny(strings.ToLower(v.Name), cfCoordinateNames) {
			matches++
		}
	}
	switch {
	case matches >= 2:
		earned += 4
	case matches == 1:
		earned += 2
		issues = append(issues, "Incomplete coordinate variables")
	default:
		issues = append(issues, "Missing coordinate variables")
	}

	if len(e.data) > 0 {
		ratio := float64(e.countWith("standard_name")) / float64(len(e.data))
		earned += ratio * 4
		if ratio < 0.5 {
			issues = append(issues, "Less than 50% of variables have standard_name")
		}
	}

	return MetricScore{
		Name:           def.Name,
		PointsEarned:   earned,
		PointsPossible: def.Points,
		Status:         thresholdStatus(earned, def.Points, 0.9, 0.5),
		Details:        fmt.Sprintf("CF compliance: %.1f%%", earned/def.Points*100),
		Issues:         issues,
	}
}

func (e evaluator) dataFormat() MetricScore {
	def := definition(Interoperable, "data_format")
	ext := filepath.Ext(e.ds.Path)
	m := MetricScore{Name: def.Name, PointsPossible: def.Points, Issues: []string{}}
	for _, allowed := range def.Required {
		if ext == allowed {
			m.PointsEarned = def.Points
			m.Status = StatusPass
			m.Details = fmt.Sprintf("Standard NetCDF format (%s)", ext)
			return m
		}
	}
	m.Status = StatusFail
	m.Details = fmt.Sprintf("Non-standard format: %s", ext)
	m.Issues = []string{"Use NetCDF format for better interoperability"}
	return m
}

func (e evaluator) coordinateSystem() MetricScore {
	def := definition(Interoperable, "coordinate_system")
	names := e.ds.VariableNames()
	found := 0
	issues := []string{}
	for _, coord := range def.Required {
		hit := false
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), coord) {
				hit = true
				break
			}
		}
		if hit {
			found++
		} else {
			issues = append(issues, fmt.Sprintf("Missing %s coordinate", coord))
		}
	}

	status := StatusFail
	switch {
	case found == len(def.Required):
		status = StatusPass
	case found >= 2:
		status = StatusPartial
	}
	return MetricScore{
		Name:           def.Name,
		PointsEarned:   float64(found) / float64(len(def.Required)) * def.Points,
		PointsPossible: def.Points,
		Status:         status,
		Details:        fmt.Sprintf("Found %d/%d coordinates", found, len(def.Required)),
		Issues:         issues,
	}
}

// qualityControl awards 4 points for QC flag variables and 3 for QC
// documentation in the global attributes.
func (e evaluator) qualityControl() MetricScore {
	def := definition(Reusable, "quality_control")
	qcVars := 0
	for _, v := range e.data {
		if containsAny(strings.ToLower(v.Name), []string{"qc", "qartod"}) {
			qcVars++
		}
	}
	qcAttrs := false
	for _, k := range e.ds.Attrs.Keys() {
		if containsAny(strings.ToLower(k), []string{"quality", "qc"}) {
			qcAttrs = true
			break
		}
	}

	var earned float64
	issues := []string{}
	if qcVars > 0 {
		earned += 4
	} else {
		issues = append(issues, "No QC flag variables found")
	}
	if qcAttrs {
		earned += 3
	} else {
		issues = append(issues, "No QC methodology documentation")
	}

	return MetricScore{
		Name:           def.Name,
		PointsEarned:   earned,
		PointsPossible: def.Points,
		Status:         thresholdStatus(earned, def.Points, 0.8, 0.4),
		Details:        fmt.Sprintf("Found %d QC variables", qcVars),
		Issues:         issues,
	}
}

func (e evaluator) countWith(attr string) int {
	n := 0
	for _, v := range e.data {
		if v.Attrs.Has(attr) {
			n++
		}
	}
	return n
}

func thresholdStatus(earned, possible, pass, partial float64) Status {
	switch {
	case earned >= possible*pass:
		return StatusPass
	case earned >= possible*partial:
		return StatusPartial
	default:
		return StatusFail
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
