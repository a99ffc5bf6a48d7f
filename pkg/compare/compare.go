// pkg/compare/compare.go
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
)

// ScoreAssessor scores the dataset stored at a path
type ScoreAssessor interface {
	Assess(ctx context.Context, path string) (assess.FAIRScore, error)
}

// Verdict summarises the direction of a score change
type Verdict string

const (
	VerdictImproved  Verdict = "improved"
	VerdictUnchanged Verdict = "unchanged"
	VerdictDecreased Verdict = "decreased"
)

// scores closer than this are treated as equal
const tolerance = 1e-9

// Snapshot is one side of a comparison
type Snapshot struct {
	Path          string  `json:"path"`
	TotalScore    float64 `json:"total_score"`
	Grade         string  `json:"grade"`
	Findable      float64 `json:"findable"`
	Accessible    float64 `json:"accessible"`
	Interoperable float64 `json:"interoperable"`
	Reusable      float64 `json:"reusable"`
}

func snapshot(path string, s assess.FAIRScore) Snapshot {
	return Snapshot{
		Path:          path,
		TotalScore:    s.Total,
		Grade:         s.Grade(),
		Findable:      s.Findable,
		Accessible:    s.Accessible,
		Interoperable: s.Interoperable,
		Reusable:      s.Reusable,
	}
}

// Score returns the snapshot's score for one principle
func (s Snapshot) Score(p assess.Principle) float64 {
	switch p {
	case assess.Findable:
		return s.Findable
	case assess.Accessible:
		return s.Accessible
	case assess.Interoperable:
		return s.Interoperable
	case assess.Reusable:
		return s.Reusable
	}
	return 0
}

// Improvements are enriched minus original
type Improvements struct {
	TotalScore    float64 `json:"total_score"`
	GradeChange   string  `json:"grade_change"`
	Findable      float64 `json:"findable"`
	Accessible    float64 `json:"accessible"`
	Interoperable float64 `json:"interoperable"`
	Reusable      float64 `json:"reusable"`
}

// Delta returns the change for one principle
func (i Improvements) Delta(p assess.Principle) float64 {
	switch p {
	case assess.Findable:
		return i.Findable
	case assess.Accessible:
		return i.Accessible
	case assess.Interoperable:
		return i.Interoperable
	case assess.Reusable:
		return i.Reusable
	}
	return 0
}

// Comparison holds the before and after assessments of one dataset
type Comparison struct {
	Original     Snapshot     `json:"original"`
	Enriched     Snapshot     `json:"enriched"`
	Improvements Improvements `json:"improvements"`
	ComparedAt   time.Time    `json:"compared_at"`
}

// Verdict classifies the total score change
func (c Comparison) Verdict() Verdict {
	switch d := c.Improvements.TotalScore; {
	case d > tolerance:
		return VerdictImproved
	case math.Abs(d) <= tolerance:
		return VerdictUnchanged
	default:
		return VerdictDecreased
	}
}

// GradeImproved reports whether the letter grade moved
func (c Comparison) GradeImproved() bool {
	return c.Original.Grade != c.Enriched.Grade && c.Verdict() == VerdictImproved
}

// Build derives a comparison from two scores already computed
func Build(originalPath string, original assess.FAIRScore, enrichedPath string, enriched assess.FAIRScore) Comparison {
	return Comparison{
		Original: snapshot(originalPath, original),
		Enriched: snapshot(enrichedPath, enriched),
		Improvements: Improvements{
			TotalScore:    enriched.Total - original.Total,
			GradeChange:   fmt.Sprintf("%s → %s", original.Grade(), enriched.Grade()),
			Findable:      enriched.Findable - original.Findable,
			Accessible:    enriched.Accessible - original.Accessible,
			Interoperable: enriched.Interoperable - original.Interoperable,
			Reusable:      enriched.Reusable - original.Reusable,
		},
		ComparedAt: time.Now().UTC(),
	}
}

// Comparator assesses dataset pairs
type Comparator struct {
	logger   *zap.Logger
	assessor ScoreAssessor
}

// NewComparator creates a comparator backed by assessor
func NewComparator(logger *zap.Logger, assessor ScoreAssessor) (*Comparator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if assessor == nil {
		return nil, errors.New("assessor cannot be nil")
	}
	return &Comparator{logger: logger.Named("compare"), assessor: assessor}, nil
}

// CompareDatasets assesses both files and reports the score change
func (c *Comparator) CompareDatasets(ctx context.Context, original, enriched string) (Comparison, error) {
	c.logger.Info("Comparing datasets",
		zap.String("original", filepath.Base(original)),
		zap.String("enriched", filepath.Base(enriched)))

	before, err := c.assessor.Assess(ctx, original)
	if err != nil {
		return Comparison{}, fmt.Errorf("failed to assess original dataset: %w", err)
	}
	after, err := c.assessor.Assess(ctx, enriched)
	if err != nil {
		return Comparison{}, fmt.Errorf("failed to assess enriched dataset: %w", err)
	}

	cmp := Build(original, before, enriched, after)
	fields := []zap.Field{
		zap.Float64("original_score", cmp.Original.TotalScore),
		zap.Float64("enriched_score", cmp.Enriched.TotalScore),
		zap.Float64("change", cmp.Improvements.TotalScore),
		zap.String("grade_change", cmp.Improvements.GradeChange),
	}
	if cmp.Verdict() == VerdictDecreased {
		c.logger.Warn("FAIR score decreased after enrichment", fields...)
	} else {
		c.logger.Info("Comparison complete", fields...)
	}
	return cmp, nil
}

// CompareDatasets is a one-shot helper around Comparator
func CompareDatasets(ctx context.Context, assessor ScoreAssessor, original, enriched string) (Comparison, error) {
	c, err := NewComparator(zap.NewNop(), assessor)
	if err != nil {
		return Comparison{}, err
	}
	return c.CompareDatasets(ctx, original, enriched)
}
