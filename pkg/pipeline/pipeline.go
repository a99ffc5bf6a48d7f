// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/cleaner"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// Kind names a pipeline variant
type Kind string

const (
	KindGeneric Kind = "generic"
	KindArgo    Kind = "argo"
)

// Default enricher orders. Later enrichers may rely on attributes written by
// earlier ones.
var (
	GenericOrder = []string{"coordinate", "variable", "metadata"}
	ArgoOrder    = []string{"geospatial", "argo_metadata", "anomaly", "bgc_names", "metadata"}
)

// State is the lifecycle position of a pipeline. It only moves forward.
type State int

const (
	StateCreated State = iota
	StateLoaded
	StateRunning
	StateEnriched
	StateSaved
	StateFailed
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateEnriched:
		return "enriched"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// DatasetStore loads and persists datasets
type DatasetStore interface {
	Open(ctx context.Context, path string) (*model.Dataset, error)
	Save(ctx context.Context, ds *model.Dataset, path string) error
}

// Builder constructs an enricher by registry name
type Builder func(name string, deps enrich.Deps) (enrich.Enricher, error)

// Pipeline runs an ordered list of enrichers over one dataset
type Pipeline struct {
	id         string
	kind       Kind
	logger     *zap.Logger
	store      DatasetStore
	cleaner    *cleaner.DatasetCleaner
	deps       enrich.Deps
	build      Builder
	metrics    *Metrics
	order      []string
	inputPath  string
	outputPath string
	outputDir  string

	state      State
	ds         *model.Dataset
	cleaning   []model.CleaningOperation
	ran        []string
	skipped    []string
	results    []enrich.Summary
	timings    []EnricherTiming
	validation error
}

// EnricherTiming is the wall time of one enricher in a run
type EnricherTiming struct {
	Enricher string        `json:"enricher"`
	Duration time.Duration `json:"duration_ns"`
}

// New creates the generic pipeline for inputPath
func New(logger *zap.Logger, store DatasetStore, deps enrich.Deps, inputPath string) (*Pipeline, error) {
	return newPipeline(KindGeneric, GenericOrder, logger, store, deps, inputPath)
}

// NewArgo creates the BGC-Argo pipeline for inputPath
func NewArgo(logger *zap.Logger, store DatasetStore, deps enrich.Deps, inputPath string) (*Pipeline, error) {
	return newPipeline(KindArgo, ArgoOrder, logger, store, deps, inputPath)
}

func newPipeline(kind Kind, order []string, logger *zap.Logger, store DatasetStore, deps enrich.Deps, inputPath string) (*Pipeline, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if store == nil {
		return nil, errors.New("dataset store cannot be nil")
	}
	if inputPath == "" {
		return nil, errors.New("input path cannot be empty")
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	dc, err := cleaner.NewDatasetCleaner(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}

	id := uuid.New().String()
	return &Pipeline{
		id:        id,
		kind:      kind,
		logger:    logger.Named("pipeline").With(zap.String("run_id", id), zap.String("pipeline", string(kind))),
		store:     store,
		cleaner:   dc,
		deps:      deps,
		build:     enrich.New,
		metrics:   NewMetrics(logger),
		order:     append([]string(nil), order...),
		inputPath: inputPath,
	}, nil
}

// WithOrder replaces the default enricher order. An empty list keeps it.
func (p *Pipeline) WithOrder(names []string) *Pipeline {
	if len(names) > 0 {
		p.order = append([]string(nil), names...)
	}
	return p
}

// WithOutputDir places the default output file in dir
func (p *Pipeline) WithOutputDir(dir string) *Pipeline {
	p.outputDir = dir
	return p
}

// WithMetrics records into m instead of the pipeline's own collector
func (p *Pipeline) WithMetrics(m *Metrics) *Pipeline {
	if m != nil {
		p.metrics = m
	}
	return p
}

// WithBuilder swaps the enricher constructor
func (p *Pipeline) WithBuilder(b Builder) *Pipeline {
	if b != nil {
		p.build = b
	}
	return p
}

// ID returns the run identifier
func (p *Pipeline) ID() string { return p.id }

// Kind returns the pipeline variant
func (p *Pipeline) Kind() Kind { return p.kind }

// State returns the lifecycle state
func (p *Pipeline) State() State { return p.state }

// Order returns the enrichers a Run without names executes
func (p *Pipeline) Order() []string { return append([]string(nil), p.order...) }

// Dataset returns the current working dataset, nil before Load
func (p *Pipeline) Dataset() *model.Dataset { return p.ds }

// Metrics returns the run's metrics collector
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Timings returns the enricher durations of this run in run order
func (p *Pipeline) Timings() []EnricherTiming {
	return append([]EnricherTiming(nil), p.timings...)
}

// DefaultOutputPath inserts "_enriched" before the input file extension
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_enriched" + ext
}

// OutputPath returns where Save writes when given no explicit path
func (p *Pipeline) OutputPath() string {
	if p.outputPath != "" {
		return p.outputPath
	}
	out := DefaultOutputPath(p.inputPath)
	if p.outputDir != "" {
		out = filepath.Join(p.outputDir, filepath.Base(out))
	}
	return out
}

// Load reads the input dataset and normalises padded strings and
// missing-value sentinels
func (p *Pipeline) Load(ctx context.Context) error {
	if p.state != StateCreated {
		return fmt.Errorf("%w: load from %s", ErrInvalidState, p.state)
	}

	p.logger.Info("Loading dataset", zap.String("path", p.inputPath))
	ds, err := p.store.Open(ctx, p.inputPath)
	if err != nil {
		p.state = StateFailed
		p.metrics.RecordRun(p.kind, OutcomeFailed)
		p.logger.Error("Failed to load dataset", zap.String("path", p.inputPath), zap.Error(err))
		return stageError(ErrorCategoryLoad, err).WithPath(p.inputPath)
	}

	p.ds, p.cleaning = p.cleaner.Clean(ds)
	p.state = StateLoaded
	p.logger.Info("Dataset loaded",
		zap.Int("variables", len(ds.Variables())),
		zap.Int("global_attributes", ds.Attrs.Len()),
		zap.Int("cleaning_operations", len(p.cleaning)))
	return nil
}

// Run applies the named enrichers in order, or the pipeline order when names
// is empty, loading the dataset first if needed. Unknown names are skipped
// with a warning. An enricher error aborts the run and leaves the pipeline
// failed, so nothing can be saved afterwards. Validation failures are only
// recorded as warnings.
func (p *Pipeline) Run(ctx context.Context, names []string) (*model.Dataset, error) {
	if p.state == StateCreated {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
	}
	if p.state != StateLoaded {
		return nil, fmt.Errorf("%w: run from %s", ErrInvalidState, p.state)
	}
	if len(names) == 0 {
		names = p.order
	}

	p.state = StateRunning
	p.logger.Info("Starting enrichment",
		zap.String("dataset", filepath.Base(p.inputPath)),
		zap.Strings("enrichers", names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, p.abort(stageError(ErrorCategoryEnrichment, err).WithEnricher(name))
		}

		e, err := p.build(name, p.deps)
		if errors.Is(err, enrich.ErrUnknownEnricher) {
			p.logger.Warn("Unknown enricher, skipping", zap.String("enricher", name))
			p.skipped = append(p.skipped, name)
			continue
		}
		if err != nil {
			return nil, p.abort(stageError(ErrorCategoryEnrichment, err).WithEnricher(name))
		}

		if err := p.apply(e); err != nil {
			return nil, err
		}
	}

	p.state = StateEnriched
	p.metrics.RecordRun(p.kind, OutcomeSuccess)
	p.logger.Info("Enrichment complete",
		zap.Int("enrichers_run", len(p.ran)),
		zap.Int("total_changes", p.totalChanges()),
		zap.Int("validation_warnings", len(multierr.Errors(p.validation))))
	return p.ds, nil
}

func (p *Pipeline) apply(e enrich.Enricher) error {
	name := e.Name()
	p.logger.Info("Running enricher", zap.String("enricher", name))

	start := time.Now()
	out, err := e.Enrich(p.ds)
	if err != nil {
		p.logger.Error("Enricher failed", zap.String("enricher", name), zap.Error(err))
		return p.abort(stageError(ErrorCategoryEnrichment, fmt.Errorf("%w: %w", ErrEnricherFailed, err)).WithEnricher(name))
	}
	p.ds = out

	if e.Validate(out) {
		p.logger.Info("Validation passed", zap.String("enricher", name))
	} else {
		p.logger.Warn("Validation failed", zap.String("enricher", name))
		p.validation = multierr.Append(p.validation,
			stageError(ErrorCategoryValidation, fmt.Errorf("%s validation failed", name)).WithEnricher(name))
	}

	s := e.Summary()
	p.results = append(p.results, s)
	p.ran = append(p.ran, name)
	elapsed := time.Since(start)
	p.timings = append(p.timings, EnricherTiming{Enricher: name, Duration: elapsed})
	p.metrics.RecordEnricher(s, elapsed)
	p.logger.Info("Enricher finished",
		zap.String("enricher", name),
		zap.Int("changes", s.ChangesMade),
		zap.Int("issues", s.IssuesFound))
	return nil
}

func (p *Pipeline) abort(err StageError) error {
	p.state = StateFailed
	p.metrics.RecordRun(p.kind, OutcomeFailed)
	p.logger.Error("Enrichment aborted", zap.String("enricher", err.Enricher), zap.Error(err.Err))
	return err
}

// Save writes the enriched dataset to path, or to OutputPath when path is
// empty, creating parent directories. It returns the written path.
func (p *Pipeline) Save(ctx context.Context, path string) (string, error) {
	switch p.state {
	case StateCreated:
		return "", ErrNotLoaded
	case StateFailed:
		return "", ErrRunAborted
	case StateLoaded, StateEnriched:
	default:
		return "", fmt.Errorf("%w: save from %s", ErrInvalidState, p.state)
	}

	if path == "" {
		path = p.OutputPath()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", stageError(ErrorCategorySave, fmt.Errorf("failed to create output directory: %w", err)).WithPath(path)
		}
	}

	p.logger.Info("Saving enriched dataset", zap.String("path", path))
	if err := p.store.Save(ctx, p.ds, path); err != nil {
		p.logger.Error("Failed to save dataset", zap.String("path", path), zap.Error(err))
		return "", stageError(ErrorCategorySave, err).WithPath(path)
	}

	p.outputPath = path
	p.state = StateSaved
	if info, err := os.Stat(path); err == nil {
		p.logger.Info("Saved enriched dataset",
			zap.String("path", path),
			zap.Float64("size_mb", float64(info.Size())/1024/1024))
	}
	return path, nil
}

// Execute loads, enriches and saves in one call
func (p *Pipeline) Execute(ctx context.Context, names []string, outputPath string) (Summary, error) {
	if _, err := p.Run(ctx, names); err != nil {
		return p.Summary(), err
	}
	if _, err := p.Save(ctx, outputPath); err != nil {
		return p.Summary(), err
	}
	return p.Summary(), nil
}

func (p *Pipeline) totalChanges() int {
	total := 0
	for _, s := range p.results {
		total += s.ChangesMade
	}
	return total
}
