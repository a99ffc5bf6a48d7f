// pkg/enrich/geospatial.go
package enrich

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/converter"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// Ranges below this many degrees are treated as a stationary platform
const stationaryThreshold = 0.01

var (
	latitudeVars  = []string{"LATITUDE", "latitude", "lat", "Latitude"}
	longitudeVars = []string{"LONGITUDE", "longitude", "lon", "Longitude"}
	timeVars      = []string{"JULD", "time", "TIME", "Time", "REFERENCE_DATE_TIME"}
	pressureVars  = []string{"PRES_ADJUSTED", "PRES"}
)

// Argo REFERENCE_DATE_TIME is stored as YYYYMMDDHHMISS text
const argoDateTimeLayout = "20060102150405"

var errNoValidTimes = errors.New("no valid time values")

// GeospatialExtractor derives ACDD bounding box, time coverage and vertical
// extent attributes from the contents of lat/lon/time/pressure variables.
type GeospatialExtractor struct {
	base
}

// NewGeospatialExtractor creates a GeospatialExtractor
func NewGeospatialExtractor(logger *zap.Logger) (*GeospatialExtractor, error) {
	b, err := newBase("geospatial", logger)
	if err != nil {
		return nil, err
	}
	return &GeospatialExtractor{base: b}, nil
}

// axis describes one horizontal axis for bounds extraction
type axis struct {
	label      string // lat or lon
	candidates []string
	units      string
	missing    string
}

var (
	latitudeAxis  = axis{"lat", latitudeVars, "degrees_north", "no_latitude"}
	longitudeAxis = axis{"lon", longitudeVars, "degrees_east", "no_longitude"}
)

// Enrich adds the geospatial and temporal attributes
func (e *GeospatialExtractor) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Extracting geospatial and temporal metadata")

	e.bounds(out, latitudeAxis, "latitude")
	e.bounds(out, longitudeAxis, "longitude")
	e.timeCoverage(out)
	e.resolution(out)
	return out, nil
}

func findVariable(ds *model.Dataset, candidates []string) (*model.Variable, bool) {
	name, ok := model.Resolve(candidates, ds.HasVariable)
	if !ok {
		return nil, false
	}
	return ds.Variable(name)
}

func (e *GeospatialExtractor) bounds(ds *model.Dataset, a axis, noun string) {
	v, ok := findVariable(ds, a.candidates)
	if !ok {
		e.issue(a.missing, fmt.Sprintf("Could not find %s variable", noun))
		return
	}
	values := v.ValidValues()
	if len(values) == 0 {
		e.issue("no_valid_"+noun, fmt.Sprintf("No valid %s values found", noun))
		return
	}

	lo, hi := floats.Min(values), floats.Max(values)
	prefix := "geospatial_" + a.label
	e.addAttr(ds.Attrs, prefix+"_min", lo, fmt.Sprintf("Added %s_min: %.5f", prefix, lo))
	e.addAttr(ds.Attrs, prefix+"_max", hi, fmt.Sprintf("Added %s_max: %.5f", prefix, hi))
	e.addAttr(ds.Attrs, prefix+"_units", a.units, fmt.Sprintf("Added %s_units: %s", prefix, a.units))

	if math.Abs(hi-lo) < stationaryThreshold {
		mean := stat.Mean(values, nil)
		e.addAttr(ds.Attrs, prefix, mean, fmt.Sprintf("Added %s: %.5f (stationary float)", prefix, mean))
	}
}

func (e *GeospatialExtractor) timeCoverage(ds *model.Dataset) {
	v, ok := findVariable(ds, timeVars)
	if !ok {
		e.issue("no_time", "Could not find time variable")
		return
	}

	start, end, days, err := timeRange(v)
	if errors.Is(err, errNoValidTimes) {
		e.issue("no_valid_times", "No valid time values found")
		return
	}
	if err != nil {
		e.issue("time_extraction_error", fmt.Sprintf("Error extracting time coverage: %v", err))
		return
	}

	startStr, endStr := converter.FormatISO(start), converter.FormatISO(end)
	e.addAttr(ds.Attrs, "time_coverage_start", startStr, "Added time_coverage_start: "+startStr)
	e.addAttr(ds.Attrs, "time_coverage_end", endStr, "Added time_coverage_end: "+endStr)
	e.addAttr(ds.Attrs, "time_coverage_duration", fmt.Sprintf("P%dD", days),
		fmt.Sprintf("Added time_coverage_duration: %d days", days))
}

// timeRange returns the first and last time of a variable and the whole
// number of days between them. JULD is read as days since 1950-01-01 and
// truncated to the day; other numeric variables use their CF units.
func timeRange(v *model.Variable) (time.Time, time.Time, int, error) {
	if v.Kind == model.KindText {
		return textTimeRange(v)
	}

	values := v.ValidValues()
	if len(values) == 0 {
		return time.Time{}, time.Time{}, 0, errNoValidTimes
	}
	lo, hi := floats.Min(values), floats.Max(values)

	if v.Name == "JULD" {
		return converter.JulianDay(lo), converter.JulianDay(hi), int(hi - lo), nil
	}

	units, err := converter.ParseTimeUnits(v.Attrs.String("units"))
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	start, end := units.At(lo), units.At(hi)
	return start, end, int(end.Sub(start).Hours() / 24), nil
}

func textTimeRange(v *model.Variable) (time.Time, time.Time, int, error) {
	var times []time.Time
	for _, s := range v.Text {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, err := time.Parse(argoDateTimeLayout, s)
		if err != nil {
			var ok bool
			if t, ok = converter.ParseTimestamp(s); !ok {
				return time.Time{}, time.Time{}, 0, fmt.Errorf("unrecognised time %q", s)
			}
		}
		times = append(times, t.UTC())
	}
	if len(times) == 0 {
		return time.Time{}, time.Time{}, 0, errNoValidTimes
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	start, end := times[0], times[len(times)-1]
	return start, end, int(end.Sub(start).Hours() / 24), nil
}

func (e *GeospatialExtractor) resolution(ds *model.Dataset) {
	e.addAttr(ds.Attrs, "geospatial_lat_resolution", "point", "Added geospatial_lat_resolution: point")
	e.addAttr(ds.Attrs, "geospatial_lon_resolution", "point", "Added geospatial_lon_resolution: point")

	v, ok := findVariable(ds, pressureVars)
	if !ok {
		return
	}
	if v.Kind == model.KindText {
		e.issue("vertical_resolution_error",
			fmt.Sprintf("Error calculating vertical resolution: %s is not numeric", v.Name))
		return
	}
	values := v.ValidValues()
	if len(values) <= 1 {
		return
	}

	lo, hi := floats.Min(values), floats.Max(values)
	res := medianSpacing(values)
	e.addAttr(ds.Attrs, "geospatial_vertical_min", lo, fmt.Sprintf("Added geospatial_vertical_min: %.1f dbar", lo))
	e.addAttr(ds.Attrs, "geospatial_vertical_max", hi, fmt.Sprintf("Added geospatial_vertical_max: %.1f dbar", hi))
	e.addAttr(ds.Attrs, "geospatial_vertical_resolution", fmt.Sprintf("%.1f dbar", res),
		fmt.Sprintf("Added geospatial_vertical_resolution: %.1f dbar", res))
	e.addAttr(ds.Attrs, "geospatial_vertical_units", "dbar", "Added geospatial_vertical_units: dbar")
	e.addAttr(ds.Attrs, "geospatial_vertical_positive", "down", "Added geospatial_vertical_positive: down")
}

// medianSpacing is the median gap between consecutive sorted values
func medianSpacing(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	diffs := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		diffs[i-1] = sorted[i] - sorted[i-1]
	}
	sort.Float64s(diffs)
	n := len(diffs)
	if n%2 == 1 {
		return diffs[n/2]
	}
	return (diffs[n/2-1] + diffs[n/2]) / 2
}

// Validate requires the horizontal bounds and a coverage start
func (e *GeospatialExtractor) Validate(ds *model.Dataset) bool {
	missing := missingAttrs(ds.Attrs,
		"geospatial_lat_min", "geospatial_lat_max", "geospatial_lon_min", "geospatial_lon_max")
	if len(missing) > 0 {
		e.logger.Warn("Missing geospatial attributes", zap.Strings("missing", missing))
		return false
	}
	if !ds.Attrs.Has("time_coverage_start") {
		e.logger.Warn("Missing time_coverage_start")
		return false
	}
	e.logger.Info("Geospatial metadata validation passed")
	return true
}
