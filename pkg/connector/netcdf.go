// pkg/connector/netcdf.go
package connector

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/converter"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// NetCDFConnector reads CDF classic and NetCDF-4 files and writes CDF classic
type NetCDFConnector struct {
	logger *zap.Logger
}

// NewNetCDFConnector creates a NetCDF connector
func NewNetCDFConnector(logger *zap.Logger) *NetCDFConnector {
	return &NetCDFConnector{logger: logger.Named("netcdf-connector")}
}

// Name identifies the connector
func (c *NetCDFConnector) Name() string {
	return "netcdf"
}

// Open reads the root group of a NetCDF file
func (c *NetCDFConnector) Open(ctx context.Context, path string) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataLoad, path, err)
	}
	defer group.Close()

	ds := model.NewDataset(path)
	copyAttributes(group.Attributes(), ds.Attrs)

	for _, name := range group.ListDimensions() {
		if n, ok := group.GetDimension(name); ok {
			ds.SetDimension(name, int(n))
		}
	}

	referenced := make(map[string]bool)
	for _, name := range group.ListVariables() {
		v, err := group.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", ErrDataLoad, name, err)
		}

		variable, err := c.toVariable(ds, name, v)
		if err != nil {
			c.logger.Warn("Skipping unreadable variable",
				zap.String("variable", name),
				zap.Error(err))
			continue
		}

		for _, ref := range strings.Fields(variable.Attrs.String("coordinates")) {
			referenced[ref] = true
		}
		if err := ds.AddVariable(variable); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
	}

	for _, v := range ds.Variables() {
		if referenced[v.Name] || (len(v.Dims) == 1 && v.Dims[0] == v.Name) {
			v.Coordinate = true
		}
	}

	return ds, nil
}

func (c *NetCDFConnector) toVariable(ds *model.Dataset, name string, v *api.Variable) (*model.Variable, error) {
	flat, err := converter.Flatten(v.Values)
	if err != nil {
		return nil, err
	}

	variable := &model.Variable{
		Name:  name,
		Dims:  append([]string(nil), v.Dimensions...),
		Kind:  flat.Kind,
		Data:  flat.Data,
		Text:  flat.Text,
		Attrs: model.NewAttrs(),
	}
	copyAttributes(v.Attributes, variable.Attrs)
	variable.Shape = shapeFor(ds, variable.Dims, flat)

	if flat.Kind == model.KindFloat32 || flat.Kind == model.KindFloat64 {
		if fill, ok := variable.Attrs.Float("_FillValue"); ok {
			for i, x := range variable.Data {
				if x == fill || (flat.Kind == model.KindFloat32 && float32(x) == float32(fill)) {
					variable.Data[i] = math.NaN()
				}
			}
		}
	}
	return variable, nil
}

// shapeFor resolves the variable's shape from declared dimensions, falling
// back to the nesting of the values. Text values carry one dimension fewer
// than declared: the last one is the string length.
func shapeFor(ds *model.Dataset, dims []string, flat converter.Flattened) []int {
	shape := make([]int, len(dims))
	complete := true
	for i, d := range dims {
		n, ok := ds.DimensionLen(d)
		if !ok {
			complete = false
			break
		}
		shape[i] = n
	}
	if complete {
		return shape
	}

	shape = append(shape[:0], flat.Shape...)
	if flat.Kind == model.KindText && len(shape) < len(dims) {
		longest := 0
		for _, s := range flat.Text {
			if len(s) > longest {
				longest = len(s)
			}
		}
		shape = append(shape, longest)
	}
	for i := len(shape); i < len(dims); i++ {
		shape = append(shape, 1)
	}
	return shape[:len(dims)]
}

func copyAttributes(src api.AttributeMap, dst *model.Attrs) {
	if src == nil {
		return
	}
	for _, k := range src.Keys() {
		if v, ok := src.Get(k); ok {
			dst.Set(k, v)
		}
	}
}

// Save writes the dataset as a CDF classic file. Non-dimension coordinates
// are listed in the data variables' coordinates attribute.
func (c *NetCDFConnector) Save(ctx context.Context, ds *model.Dataset, path string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out := ds.Clone()
	annotateCoordinates(out)

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, cw.Close())
		if err != nil {
			os.Remove(path)
		}
	}()

	globals, err := toAttributeMap(out.Attrs)
	if err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	if err := cw.AddGlobalAttrs(globals); err != nil {
		return fmt.Errorf("failed to write global attributes: %w", err)
	}

	for _, v := range out.Variables() {
		values, err := valuesFor(v)
		if err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		attrs, err := toAttributeMap(v.Attrs)
		if err != nil {
			return fmt.Errorf("variable %s attributes: %w", v.Name, err)
		}
		if err := cw.AddVar(v.Name, api.Variable{
			Values:     values,
			Dimensions: v.Dims,
			Attributes: attrs,
		}); err != nil {
			return fmt.Errorf("failed to write variable %s: %w", v.Name, err)
		}
	}

	c.logger.Info("Dataset written",
		zap.String("path", path),
		zap.Int("variables", len(out.Variables())))
	return nil
}

func valuesFor(v *model.Variable) (interface{}, error) {
	if v.Kind == model.KindText {
		outer := v.Shape
		if len(outer) > 0 && product(outer[:len(outer)-1]) == len(v.Text) {
			outer = outer[:len(outer)-1]
		}
		return converter.Unflatten(v.Kind, nil, v.Text, outer)
	}

	data := v.Data
	if fill, ok := v.Attrs.Float("_FillValue"); ok {
		data = make([]float64, len(v.Data))
		for i, x := range v.Data {
			if math.IsNaN(x) {
				x = fill
			}
			data[i] = x
		}
	}
	return converter.Unflatten(v.Kind, data, nil, v.Shape)
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func annotateCoordinates(ds *model.Dataset) {
	var auxiliary []*model.Variable
	for _, v := range ds.Coords() {
		if len(v.Dims) == 1 && v.Dims[0] == v.Name {
			continue
		}
		auxiliary = append(auxiliary, v)
	}
	if len(auxiliary) == 0 {
		return
	}

	for _, dv := range ds.DataVars() {
		existing := strings.Fields(dv.Attrs.String("coordinates"))
		listed := make(map[string]bool, len(existing))
		for _, name := range existing {
			listed[name] = true
		}
		for _, coord := range auxiliary {
			if !listed[coord.Name] && dimsSubset(coord.Dims, dv.Dims) {
				existing = append(existing, coord.Name)
				listed[coord.Name] = true
			}
		}
		if len(existing) > 0 {
			dv.Attrs.Set("coordinates", strings.Join(existing, " "))
		}
	}
}

func dimsSubset(sub, of []string) bool {
	for _, d := range sub {
		found := false
		for _, o := range of {
			if d == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// toAttributeMap converts attribute values to the types CDF classic stores
func toAttributeMap(attrs *model.Attrs) (api.AttributeMap, error) {
	keys := attrs.Keys()
	values := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		v, _ := attrs.Get(k)
		values[k] = cdfValue(v)
	}
	return util.NewOrderedMap(keys, values)
}

func cdfValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bool:
		if t {
			return int8(1)
		}
		return int8(0)
	case int:
		return int32(t)
	case int64:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return int32(t)
		}
		return float64(t)
	case uint8:
		return int16(t)
	case []int:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return out
	case []int64:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return out
	case []string:
		return strings.Join(t, ", ")
	case nil:
		return ""
	default:
		return v
	}
}
