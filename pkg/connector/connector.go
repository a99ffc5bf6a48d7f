// pkg/connector/connector.go
package connector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

var (
	// ErrDataLoad is returned when a dataset cannot be opened or parsed
	ErrDataLoad = errors.New("cannot load dataset")
	// ErrUnsupportedFormat is returned for file extensions no connector handles
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// DatasetConnector defines the interface for dataset readers and writers
type DatasetConnector interface {
	// Name identifies the connector in logs
	Name() string

	// Open reads a dataset from disk into an independent in-memory copy
	Open(ctx context.Context, path string) (*model.Dataset, error)

	// Save writes a dataset to disk, replacing any existing file
	Save(ctx context.Context, ds *model.Dataset, path string) error
}

// DatasetStats summarises the shape of a loaded dataset
type DatasetStats struct {
	Variables   int
	DataVars    int
	Coordinates int
	GlobalAttrs int
	Dimensions  int
}

// GetDatasetStats returns dataset statistics for logging
func GetDatasetStats(ds *model.Dataset) DatasetStats {
	return DatasetStats{
		Variables:   len(ds.Variables()),
		DataVars:    len(ds.DataVars()),
		Coordinates: len(ds.Coords()),
		GlobalAttrs: ds.Attrs.Len(),
		Dimensions:  len(ds.Dimensions()),
	}
}

// LogDatasetStats logs dataset statistics
func LogDatasetStats(logger *zap.Logger, ds *model.Dataset) {
	stats := GetDatasetStats(ds)
	logger.Info("Dataset loaded",
		zap.String("path", ds.Path),
		zap.Int("variables", stats.Variables),
		zap.Int("data_vars", stats.DataVars),
		zap.Int("coordinates", stats.Coordinates),
		zap.Int("global_attributes", stats.GlobalAttrs),
		zap.Int("dimensions", stats.Dimensions),
	)
}
