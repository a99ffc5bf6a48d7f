// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// DatasetCleaner normalises values of freshly loaded datasets before any
// enricher sees them
type DatasetCleaner struct {
	logger *zap.Logger
}

// NewDatasetCleaner creates a new DatasetCleaner instance
func NewDatasetCleaner(logger *zap.Logger) (*DatasetCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &DatasetCleaner{logger: logger.Named("cleaner")}, nil
}

// Clean returns a cleaned copy of ds and the operations performed. The
// input is left untouched.
func (c *DatasetCleaner) Clean(ds *model.Dataset) (*model.Dataset, []model.CleaningOperation) {
	out := ds.Clone()
	var operations []model.CleaningOperation

	operations = append(operations, trimAttributes(out.Attrs, "")...)
	for _, v := range out.Variables() {
		operations = append(operations, trimAttributes(v.Attrs, v.Name)...)

		for _, op := range []func(*model.Variable) *model.CleaningOperation{
			trimText,
			maskMissingValue,
			maskNonFinite,
		} {
			if applied := op(v); applied != nil {
				operations = append(operations, *applied)
			}
		}
	}

	for _, op := range operations {
		c.logger.Debug("Cleaned dataset value",
			zap.String("variable", op.Variable),
			zap.String("attribute", op.Attribute),
			zap.String("operation", op.Operation),
			zap.String("reason", op.Reason),
			zap.Int("count", op.Count))
	}
	if len(operations) > 0 {
		c.logger.Info("Cleaned dataset on load",
			zap.String("dataset", ds.Path),
			zap.Int("operations", len(operations)))
	}
	return out, operations
}

// CountByOperation tallies affected values per operation type
func CountByOperation(operations []model.CleaningOperation) map[string]int {
	counts := make(map[string]int)
	for _, op := range operations {
		counts[op.Operation] += op.Count
	}
	return counts
}

// Operations lists the distinct operation types, sorted
func Operations(operations []model.CleaningOperation) []string {
	counts := CountByOperation(operations)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
