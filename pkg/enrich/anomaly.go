// pkg/enrich/anomaly.go
package enrich

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/qc"
)

const (
	anomalyFlagVar  = "PH_ANOMALY_FLAG"
	anomalyScoreVar = "PH_ANOMALY_SCORE"
)

var (
	phVars   = []string{"PH_IN_SITU_TOTAL_ADJUSTED", "PH_IN_SITU_TOTAL"}
	presVars = []string{"PRES_ADJUSTED", "PRES"}
	tempVars = []string{"TEMP_ADJUSTED", "TEMP", "TEMP_DOXY_ADJUSTED", "TEMP_DOXY"}
)

// PHDetector is the inference side of the pH anomaly model
type PHDetector interface {
	IsTrained() bool
	Detect(ph, pressure, temperature []float64) ([]int8, error)
	AnomalyScores(ph, pressure, temperature []float64) ([]float64, error)
}

// DetectorSource is the outcome of loading a detector: Ready or Unavailable
type DetectorSource interface {
	isDetectorSource()
}

// Ready carries a loaded detector
type Ready struct {
	Detector PHDetector
}

// Unavailable records why no detector could be loaded. Kind becomes the
// issue type on the enricher's ledger.
type Unavailable struct {
	Kind   string
	Reason string
}

func (Ready) isDetectorSource()       {}
func (Unavailable) isDetectorSource() {}

// DetectorLoader produces a detector when the anomaly enricher needs one.
// An error aborts the enrichment.
type DetectorLoader func() (DetectorSource, error)

// StaticDetector wraps an already trained detector
func StaticDetector(d PHDetector) DetectorLoader {
	return func() (DetectorSource, error) {
		return Ready{Detector: d}, nil
	}
}

// ModelDetectorLoader loads the persisted model at modelPath. With
// skipIfNoModel a missing model or scaler is reported as Unavailable
// instead of an error.
func ModelDetectorLoader(logger *zap.Logger, modelPath string, opts qc.Options, skipIfNoModel bool) DetectorLoader {
	return func() (DetectorSource, error) {
		d := qc.NewDetector(logger, opts)
		err := d.LoadModel(modelPath)
		if err == nil {
			return Ready{Detector: d}, nil
		}
		if skipIfNoModel && (errors.Is(err, qc.ErrModelNotFound) || errors.Is(err, qc.ErrScalerNotFound)) {
			return Unavailable{
				Kind:   "no_model",
				Reason: fmt.Sprintf("Anomaly detection model not found: %v. Run training first.", err),
			}, nil
		}
		return nil, err
	}
}

// AnomalyEnricher flags suspicious pH readings with the isolation forest
// detector and adds a continuous anomaly score.
type AnomalyEnricher struct {
	base
	loader DetectorLoader
}

// NewAnomalyEnricher creates an AnomalyEnricher. A nil loader means no
// detector is available and every run is skipped with an issue.
func NewAnomalyEnricher(logger *zap.Logger, loader DetectorLoader) (*AnomalyEnricher, error) {
	b, err := newBase("anomaly", logger)
	if err != nil {
		return nil, err
	}
	return &AnomalyEnricher{base: b, loader: loader}, nil
}

// Enrich adds PH_ANOMALY_FLAG and PH_ANOMALY_SCORE next to the pH variable
func (e *AnomalyEnricher) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Starting anomaly detection enrichment")

	if out.HasVariable(anomalyFlagVar) {
		e.logger.Info("Anomaly flags already present")
		return out, nil
	}

	ph, pres, temp, ok := e.inputs(out)
	if !ok {
		return out, nil
	}

	detector, err := e.detector()
	if err != nil {
		return nil, fmt.Errorf("failed to load anomaly detector: %w", err)
	}
	if detector == nil {
		return out, nil
	}

	flags, scores, err := runDetector(detector, ph.Data, pres.Data, temp.Data)
	if err != nil {
		e.issue("detection_error", fmt.Sprintf("Anomaly detection failed: %v", err))
		return out, nil
	}
	stats := qc.CountLabels(flags)

	if err := e.addOutputs(out, ph, flags, scores, stats); err != nil {
		return nil, err
	}

	e.logger.Info("Anomaly detection complete",
		zap.Int("anomalies", stats.Anomalies),
		zap.Int("total_points", stats.TotalPoints),
		zap.Float64("anomaly_percentage", stats.AnomalyPercentage))
	return out, nil
}

// inputs resolves the pH, pressure and temperature variables
func (e *AnomalyEnricher) inputs(ds *model.Dataset) (ph, pres, temp *model.Variable, ok bool) {
	ph, phOK := findVariable(ds, phVars)
	pres, presOK := findVariable(ds, presVars)
	temp, tempOK := findVariable(ds, tempVars)

	var missing []string
	if !phOK {
		missing = append(missing, "pH (PH_IN_SITU_TOTAL)")
	}
	if !presOK {
		missing = append(missing, "Pressure (PRES)")
	}
	if !tempOK {
		missing = append(missing, "Temperature (TEMP)")
	}
	if len(missing) > 0 {
		e.issue("missing_variables", fmt.Sprintf(
			"Required variables not found: %s. Skipping anomaly detection.", strings.Join(missing, ", ")))
		return nil, nil, nil, false
	}

	e.logger.Info("Found variables",
		zap.String("ph", ph.Name),
		zap.String("pres", pres.Name),
		zap.String("temp", temp.Name))
	return ph, pres, temp, true
}

// detector returns nil when the run should be skipped
func (e *AnomalyEnricher) detector() (PHDetector, error) {
	if e.loader == nil {
		e.issue("missing_dependency", "Anomaly detector not configured, skipping anomaly detection")
		return nil, nil
	}
	src, err := e.loader()
	if err != nil {
		return nil, err
	}
	switch s := src.(type) {
	case Ready:
		if s.Detector == nil || !s.Detector.IsTrained() {
			e.issue("no_model", "Anomaly detector is not trained, skipping anomaly detection")
			return nil, nil
		}
		return s.Detector, nil
	case Unavailable:
		e.issue(s.Kind, s.Reason)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown detector source %T", src)
	}
}

func runDetector(d PHDetector, ph, pres, temp []float64) ([]int8, []float64, error) {
	flags, err := d.Detect(ph, pres, temp)
	if err != nil {
		return nil, nil, err
	}
	scores, err := d.AnomalyScores(ph, pres, temp)
	if err != nil {
		return nil, nil, err
	}
	return flags, scores, nil
}

func (e *AnomalyEnricher) addOutputs(ds *model.Dataset, ph *model.Variable, flags []int8, scores []float64, stats qc.Stats) error {
	flagData := make([]float64, len(flags))
	for i, f := range flags {
		flagData[i] = float64(f)
	}

	flag := model.NewVariable(anomalyFlagVar, append([]string(nil), ph.Dims...), append([]int(nil), ph.Shape...), flagData)
	flag.Kind = model.KindInt8
	flag.Attrs.Set("long_name", "pH anomaly detection flag")
	flag.Attrs.Set("standard_name", "quality_flag")
	flag.Attrs.Set("flag_values", []int8{-1, 1})
	flag.Attrs.Set("flag_meanings", "anomaly normal")
	flag.Attrs.Set("comment", "Anomaly detection using IsolationForest algorithm. "+
		"Trained on historical BGC-Argo pH profiles. "+
		"-1 indicates potential anomaly, 1 indicates normal.")
	flag.Attrs.Set("source_variable", ph.Name)
	if err := ds.AddVariable(flag); err != nil {
		return fmt.Errorf("failed to add %s: %w", anomalyFlagVar, err)
	}
	e.change("variable_added", fmt.Sprintf("Added %s (%d anomalies detected)", anomalyFlagVar, stats.Anomalies))

	score := model.NewVariable(anomalyScoreVar, append([]string(nil), ph.Dims...), append([]int(nil), ph.Shape...), scores)
	score.Attrs.Set("long_name", "pH anomaly score")
	score.Attrs.Set("comment", "IsolationForest anomaly score. "+
		"Lower values indicate more anomalous measurements.")
	score.Attrs.Set("units", "1")
	score.Attrs.Set("source_variable", ph.Name)
	if err := ds.AddVariable(score); err != nil {
		return fmt.Errorf("failed to add %s: %w", anomalyScoreVar, err)
	}
	e.change("variable_added", "Added "+anomalyScoreVar)

	ds.Attrs.Set("anomaly_detection_method", "IsolationForest")
	ds.Attrs.Set("anomaly_detection_variables", "PH_IN_SITU_TOTAL, PRES, TEMP")
	ds.Attrs.Set("anomaly_count", stats.Anomalies)
	ds.Attrs.Set("anomaly_percentage", stats.AnomalyPercentage)
	e.change("attribute_added", fmt.Sprintf("Added anomaly detection metadata (%.1f%% anomalies)", stats.AnomalyPercentage))
	return nil
}

// Validate passes a skipped run that logged its reason; otherwise the flag
// variable must hold only -1/1 and carry its flag attributes.
func (e *AnomalyEnricher) Validate(ds *model.Dataset) bool {
	flag, ok := ds.Variable(anomalyFlagVar)
	if !ok {
		if len(e.ledger.Issues()) > 0 {
			e.logger.Info("Anomaly detection skipped (see issues), validation passed")
			return true
		}
		e.logger.Warn("PH_ANOMALY_FLAG variable not found")
		return false
	}

	for _, v := range flag.Data {
		if math.IsNaN(v) {
			continue
		}
		if v != -1 && v != 1 {
			e.logger.Warn("Unexpected flag value", zap.Float64("value", v))
			return false
		}
	}
	if missing := missingAttrs(flag.Attrs, "long_name", "flag_values", "flag_meanings"); len(missing) > 0 {
		e.logger.Warn("Missing attributes on PH_ANOMALY_FLAG", zap.Strings("missing", missing))
		return false
	}
	e.logger.Info("Anomaly enrichment validation passed")
	return true
}
