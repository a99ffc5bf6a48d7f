// pkg/pipeline/error.go
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/connector"
)

var (
	// ErrNotLoaded is returned when an operation needs a loaded dataset
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrEnricherFailed marks an enricher that returned an error mid-run
	ErrEnricherFailed = errors.New("enricher failed")
	// ErrInvalidState is returned for operations that would move the
	// pipeline backwards (for example running again after a save)
	ErrInvalidState = errors.New("invalid pipeline state")
	// ErrRunAborted is returned by Save after a failed run
	ErrRunAborted = errors.New("pipeline run aborted")
)

// ErrorCategory classifies pipeline failures by stage
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryLoad
	ErrorCategoryEnrichment
	ErrorCategoryValidation
	ErrorCategorySave
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryLoad:
		return "Load"
	case ErrorCategoryEnrichment:
		return "Enrichment"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategorySave:
		return "Save"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// StageError is a pipeline failure tagged with the stage it happened in
type StageError struct {
	Category  ErrorCategory
	Enricher  string
	Path      string
	Err       error
	Timestamp time.Time
}

func stageError(category ErrorCategory, err error) StageError {
	return StageError{Category: category, Err: err, Timestamp: time.Now()}
}

// WithEnricher adds the failing enricher's name
func (e StageError) WithEnricher(name string) StageError {
	e.Enricher = name
	return e
}

// WithPath adds the dataset path being read or written
func (e StageError) WithPath(path string) StageError {
	e.Path = path
	return e
}

// Error returns a formatted error message
func (e StageError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", e.Category))
	if e.Enricher != "" {
		sb.WriteString(fmt.Sprintf("Enricher: %s ", e.Enricher))
	}
	if e.Path != "" {
		sb.WriteString(fmt.Sprintf("Path: %s ", e.Path))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", e.Err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the underlying error to errors.Is and errors.As
func (e StageError) Unwrap() error {
	return e.Err
}

// CategorizeError determines the stage an error came from
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var se StageError
	switch {
	case errors.As(err, &se):
		return se.Category
	case errors.Is(err, connector.ErrDataLoad), errors.Is(err, connector.ErrUnsupportedFormat):
		return ErrorCategoryLoad
	case errors.Is(err, ErrEnricherFailed):
		return ErrorCategoryEnrichment
	default:
		return ErrorCategoryNone
	}
}
