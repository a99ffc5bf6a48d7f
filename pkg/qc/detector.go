// pkg/qc/detector.go
package qc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotTrained is returned when inference runs before Train or LoadModel
	ErrNotTrained = errors.New("detector not trained: call Train or LoadModel first")
	// ErrModelNotFound is returned when the model artefact is missing
	ErrModelNotFound = errors.New("model not found")
	// ErrScalerNotFound is returned when the paired scaler artefact is missing
	ErrScalerNotFound = errors.New("scaler not found")
	// ErrInsufficientData is returned when too few complete rows remain for training
	ErrInsufficientData = errors.New("insufficient valid data points for training")
)

// MinTrainingRows is the smallest number of complete rows Train accepts
const MinTrainingRows = 10

// Options configures the isolation forest
type Options struct {
	Contamination float64
	Trees         int
	SampleSize    int
	RandomState   int64
}

// DefaultOptions returns a 100-tree forest with 5% expected anomalies
func DefaultOptions() Options {
	return Options{
		Contamination: 0.05,
		Trees:         100,
		SampleSize:    256,
		RandomState:   42,
	}
}

// Detector classifies pH readings as anomalous in the context of pressure
// and temperature.
type Detector struct {
	logger *zap.Logger
	opts   Options

	forest    *Forest
	scaler    *Scaler
	modelID   string
	trainedAt time.Time
}

// NewDetector creates an untrained detector
func NewDetector(logger *zap.Logger, opts Options) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Contamination <= 0 {
		opts.Contamination = DefaultOptions().Contamination
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultOptions().Trees
	}
	if opts.SampleSize <= 1 {
		opts.SampleSize = DefaultOptions().SampleSize
	}
	return &Detector{logger: logger.Named("ph-detector"), opts: opts}
}

// IsTrained reports whether a model is available for inference
func (d *Detector) IsTrained() bool {
	return d.forest != nil && d.scaler != nil
}

// ModelID identifies the trained model
func (d *Detector) ModelID() string {
	return d.modelID
}

// features pairs the three inputs into rows and marks complete ones
func features(ph, pressure, temperature []float64) ([][]float64, []bool, error) {
	if len(ph) != len(pressure) || len(ph) != len(temperature) {
		return nil, nil, fmt.Errorf("input lengths differ: ph=%d pressure=%d temperature=%d",
			len(ph), len(pressure), len(temperature))
	}
	rows := make([][]float64, len(ph))
	valid := make([]bool, len(ph))
	for i := range ph {
		rows[i] = []float64{ph[i], pressure[i], temperature[i]}
		valid[i] = !math.IsNaN(ph[i]) && !math.IsNaN(pressure[i]) && !math.IsNaN(temperature[i])
	}
	return rows, valid, nil
}

// Train fits the scaler and forest on the complete rows
func (d *Detector) Train(ph, pressure, temperature []float64) error {
	rows, valid, err := features(ph, pressure, temperature)
	if err != nil {
		return err
	}

	var complete [][]float64
	for i, r := range rows {
		if valid[i] {
			complete = append(complete, r)
		}
	}
	if len(complete) < MinTrainingRows {
		return fmt.Errorf("%w: %d, need at least %d non-NaN samples",
			ErrInsufficientData, len(complete), MinTrainingRows)
	}

	d.logger.Info("Training pH anomaly detector",
		zap.Int("samples", len(complete)),
		zap.Int("trees", d.opts.Trees),
		zap.Float64("contamination", d.opts.Contamination))

	scaler := fitScaler(complete)
	scaled := make([][]float64, len(complete))
	for i, r := range complete {
		scaled[i] = scaler.Transform(r)
	}

	d.forest = fitForest(scaled, d.opts.Trees, d.opts.SampleSize, d.opts.Contamination, d.opts.RandomState)
	d.scaler = scaler
	d.modelID = uuid.NewString()
	d.trainedAt = time.Now().UTC()
	return nil
}

// Detect returns -1 for anomalies and 1 for normal rows. Rows with any NaN
// input are reported as normal.
func (d *Detector) Detect(ph, pressure, temperature []float64) ([]int8, error) {
	if !d.IsTrained() {
		return nil, ErrNotTrained
	}
	rows, valid, err := features(ph, pressure, temperature)
	if err != nil {
		return nil, err
	}

	out := make([]int8, len(rows))
	for i, r := range rows {
		out[i] = 1
		if valid[i] && d.forest.Decision(d.scaler.Transform(r)) < 0 {
			out[i] = -1
		}
	}
	return out, nil
}

// AnomalyScores returns the decision value per row (lower is more
// anomalous). Rows with any NaN input score 0.
func (d *Detector) AnomalyScores(ph, pressure, temperature []float64) ([]float64, error) {
	if !d.IsTrained() {
		return nil, ErrNotTrained
	}
	rows, valid, err := features(ph, pressure, temperature)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(rows))
	for i, r := range rows {
		if valid[i] {
			out[i] = d.forest.Decision(d.scaler.Transform(r))
		}
	}
	return out, nil
}

// Stats summarises a detection run
type Stats struct {
	TotalPoints       int     `json:"total_points"`
	Anomalies         int     `json:"anomalies"`
	Normal            int     `json:"normal"`
	AnomalyPercentage float64 `json:"anomaly_percentage"`
}

// Stats runs detection and counts the outcome
func (d *Detector) Stats(ph, pressure, temperature []float64) (Stats, error) {
	labels, err := d.Detect(ph, pressure, temperature)
	if err != nil {
		return Stats{}, err
	}
	return CountLabels(labels), nil
}

// CountLabels tallies -1/1 labels; the percentage is rounded to 2 decimals
func CountLabels(labels []int8) Stats {
	s := Stats{TotalPoints: len(labels)}
	for _, l := range labels {
		switch l {
		case -1:
			s.Anomalies++
		case 1:
			s.Normal++
		}
	}
	if s.TotalPoints > 0 {
		s.AnomalyPercentage = math.Round(10000*float64(s.Anomalies)/float64(s.TotalPoints)) / 100
	}
	return s
}

// ScalerPath returns the scaler artefact paired with a model path
func ScalerPath(modelPath string) string {
	ext := filepath.Ext(modelPath)
	stem := strings.TrimSuffix(filepath.Base(modelPath), ext)
	return filepath.Join(filepath.Dir(modelPath), stem+"_scaler"+ext)
}

type modelFile struct {
	ModelID       string    `json:"model_id"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Contamination float64   `json:"contamination"`
	RandomState   int64     `json:"random_state"`
	Forest        *Forest   `json:"forest"`
}

// SaveModel writes the model and its paired scaler
func (d *Detector) SaveModel(path string) error {
	if !d.IsTrained() {
		return ErrNotTrained
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	model := modelFile{
		ModelID:       d.modelID,
		TrainedAt:     d.trainedAt,
		Features:      []string{"ph", "pressure", "temperature"},
		Contamination: d.opts.Contamination,
		RandomState:   d.opts.RandomState,
		Forest:        d.forest,
	}
	if err := writeJSON(path, model); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	scalerPath := ScalerPath(path)
	if err := writeJSON(scalerPath, d.scaler); err != nil {
		return fmt.Errorf("failed to save scaler: %w", err)
	}

	d.logger.Info("Model saved",
		zap.String("model", path),
		zap.String("scaler", scalerPath))
	return nil
}

// LoadModel reads a model and its paired scaler. Both must exist.
func (d *Detector) LoadModel(path string) error {
	scalerPath := ScalerPath(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if _, err := os.Stat(scalerPath); err != nil {
		return fmt.Errorf("%w: %s", ErrScalerNotFound, scalerPath)
	}

	var model modelFile
	if err := readJSON(path, &model); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	var scaler Scaler
	if err := readJSON(scalerPath, &scaler); err != nil {
		return fmt.Errorf("failed to load scaler: %w", err)
	}
	if model.Forest == nil || len(scaler.Mean) != 3 || len(scaler.Scale) != 3 {
		return fmt.Errorf("failed to load model: %s is incomplete", path)
	}

	d.forest = model.Forest
	d.scaler = &scaler
	d.modelID = model.ModelID
	d.trainedAt = model.TrainedAt
	d.opts.Contamination = model.Contamination

	d.logger.Info("Model loaded",
		zap.String("model", path),
		zap.String("model_id", d.modelID))
	return nil
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
