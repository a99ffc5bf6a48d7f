// pkg/enrich/registry.go
package enrich

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrUnknownEnricher is returned for names missing from the registry
var ErrUnknownEnricher = errors.New("unknown enricher")

// Deps are the collaborators an enricher may need
type Deps struct {
	Logger   *zap.Logger
	Detector DetectorLoader
}

// Constructor builds one enricher
type Constructor func(deps Deps) (Enricher, error)

var registry = map[string]Constructor{
	"coordinate": func(d Deps) (Enricher, error) { return NewCoordinateEnricher(d.Logger) },
	"variable":   func(d Deps) (Enricher, error) { return NewVariableEnricher(d.Logger) },
	"metadata":   func(d Deps) (Enricher, error) { return NewMetadataEnricher(d.Logger) },
	"geospatial": func(d Deps) (Enricher, error) { return NewGeospatialExtractor(d.Logger) },
	"argo_metadata": func(d Deps) (Enricher, error) {
		return NewArgoMetadataEnricher(d.Logger)
	},
	"anomaly": func(d Deps) (Enricher, error) {
		return NewAnomalyEnricher(d.Logger, d.Detector)
	},
	"bgc_names": func(d Deps) (Enricher, error) {
		return NewBGCStandardNameMapper(d.Logger)
	},
}

// New builds the enricher registered under name
func New(name string, deps Deps) (Enricher, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnricher, name)
	}
	e, err := ctor(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s enricher: %w", name, err)
	}
	return e, nil
}

// Known reports whether name is registered
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names lists the registered enrichers alphabetically
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
