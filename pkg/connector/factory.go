// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// ConnectorFactory picks a dataset connector by file extension
type ConnectorFactory struct {
	logger *zap.Logger
	netcdf *NetCDFConnector
	json   *JSONConnector
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		logger: logger,
		netcdf: NewNetCDFConnector(logger),
		json:   NewJSONConnector(logger),
	}
}

// ForPath returns the connector that handles the file's extension
func (f *ConnectorFactory) ForPath(path string) (DatasetConnector, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4", ".netcdf", ".cdf":
		return f.netcdf, nil
	case ".json":
		return f.json, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Open loads a dataset with the connector matching its extension
func (f *ConnectorFactory) Open(ctx context.Context, path string) (*model.Dataset, error) {
	c, err := f.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}

	f.logger.Debug("Opening dataset",
		zap.String("path", path),
		zap.String("connector", c.Name()))

	ds, err := c.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	LogDatasetStats(f.logger, ds)
	return ds, nil
}

// Save writes a dataset with the connector matching the target extension
func (f *ConnectorFactory) Save(ctx context.Context, ds *model.Dataset, path string) error {
	c, err := f.ForPath(path)
	if err != nil {
		return err
	}
	return c.Save(ctx, ds, path)
}
