// pkg/enrich/coordinate.go
package enrich

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

var (
	latitudeAttrs  = []string{"lat", "latitude", "geospatial_lat_min", "nominal_latitude"}
	longitudeAttrs = []string{"lon", "longitude", "geospatial_lon_min", "nominal_longitude"}
	depthAttrs     = []string{"depth", "nominal_depth", "geospatial_vertical_min", "sensor_depth"}
)

// CoordinateEnricher adds scalar lat/lon/depth coordinates from global
// attributes and completes the time coordinate's attributes.
type CoordinateEnricher struct {
	base
}

// NewCoordinateEnricher creates a CoordinateEnricher
func NewCoordinateEnricher(logger *zap.Logger) (*CoordinateEnricher, error) {
	b, err := newBase("coordinate", logger)
	if err != nil {
		return nil, err
	}
	return &CoordinateEnricher{base: b}, nil
}

// Enrich adds the missing coordinates
func (e *CoordinateEnricher) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Adding coordinate variables")

	if err := e.addSpatial(out); err != nil {
		return nil, err
	}
	if err := e.addDepth(out); err != nil {
		return nil, err
	}
	e.fixTime(out)
	return out, nil
}

// numericAttr returns the first candidate attribute that parses as a number
func numericAttr(attrs *model.Attrs, candidates []string) (float64, bool) {
	var value float64
	_, ok := model.Resolve(candidates, func(key string) bool {
		f, ok := attrs.Float(key)
		if ok {
			value = f
		}
		return ok
	})
	return value, ok
}

func (e *CoordinateEnricher) addSpatial(ds *model.Dataset) error {
	hasLat := ds.CoordNameContains("lat")
	hasLon := ds.CoordNameContains("lon")
	if hasLat && hasLon {
		e.logger.Debug("Spatial coordinates already present")
		return nil
	}

	lat, latOK := numericAttr(ds.Attrs, latitudeAttrs)
	lon, lonOK := numericAttr(ds.Attrs, longitudeAttrs)

	if latOK && !hasLat {
		if err := e.addScalarCoord(ds, "lat", lat, map[string]string{
			"standard_name": "latitude",
			"long_name":     "Latitude",
			"units":         "degrees_north",
			"axis":          "Y",
		}); err != nil {
			return err
		}
	}
	if lonOK && !hasLon {
		if err := e.addScalarCoord(ds, "lon", lon, map[string]string{
			"standard_name": "longitude",
			"long_name":     "Longitude",
			"units":         "degrees_east",
			"axis":          "X",
		}); err != nil {
			return err
		}
	}

	if !latOK || !lonOK {
		e.issue("missing_coordinates", "Could not find lat/lon in global attributes")
	}
	return nil
}

func (e *CoordinateEnricher) addDepth(ds *model.Dataset) error {
	if ds.CoordNameContains("depth") {
		e.logger.Debug("Depth coordinate already present")
		return nil
	}

	depth, ok := numericAttr(ds.Attrs, depthAttrs)
	if !ok {
		e.issue("missing_depth", "Could not find depth in global attributes")
		return nil
	}
	return e.addScalarCoord(ds, "depth", depth, map[string]string{
		"standard_name": "depth",
		"long_name":     "Depth",
		"units":         "m",
		"positive":      "down",
		"axis":          "Z",
	})
}

func (e *CoordinateEnricher) fixTime(ds *model.Dataset) {
	v, ok := ds.FirstCoordContaining("time")
	if !ok {
		e.issue("missing_time", "No time coordinate found")
		return
	}
	for _, a := range []struct{ key, value string }{
		{"standard_name", "time"},
		{"long_name", "Time"},
		{"axis", "T"},
	} {
		e.addAttr(v.Attrs, a.key, a.value, fmt.Sprintf("Added %s to %s", a.key, v.Name))
	}
}

// addScalarCoord adds a zero-dimensional coordinate with ordered attributes.
// A data variable that already holds the name is left alone.
func (e *CoordinateEnricher) addScalarCoord(ds *model.Dataset, name string, value float64, attrs map[string]string) error {
	if ds.HasVariable(name) {
		e.logger.Debug("Variable already present, not adding coordinate", zap.String("variable", name))
		return nil
	}
	v := model.NewScalar(name, value)
	for _, key := range []string{"standard_name", "long_name", "units", "positive", "axis"} {
		if val, ok := attrs[key]; ok {
			v.Attrs.Set(key, val)
		}
	}
	if err := ds.AddCoordinate(v); err != nil {
		return fmt.Errorf("failed to add %s coordinate: %w", name, err)
	}
	e.change("coordinate_added", fmt.Sprintf("Added %s = %v", name, value))
	return nil
}

// Validate requires a time coordinate; missing lat/lon is only a warning
func (e *CoordinateEnricher) Validate(ds *model.Dataset) bool {
	if !ds.CoordNameContains("time") {
		e.logger.Error("Validation failed: no time coordinate")
		return false
	}
	if !ds.CoordNameContains("lat") || !ds.CoordNameContains("lon") {
		e.logger.Warn("Validation warning: missing spatial coordinates")
		return true
	}
	e.logger.Info("Coordinate validation passed")
	return true
}
