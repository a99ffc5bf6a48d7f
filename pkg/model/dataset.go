// pkg/model/dataset.go
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind identifies the storage type of a variable
type Kind string

const (
	KindFloat64 Kind = "float64"
	KindFloat32 Kind = "float32"
	KindInt32   Kind = "int32"
	KindInt16   Kind = "int16"
	KindInt8    Kind = "int8"
	KindText    Kind = "text"
)

// IsNumeric reports whether values of this kind live in Variable.Data
func (k Kind) IsNumeric() bool {
	return k != KindText
}

// Dimension is a named axis length
type Dimension struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// Variable holds one dataset variable. Numeric values are flattened in
// row-major order into Data, with missing values as NaN.
type Variable struct {
	Name       string
	Dims       []string
	Shape      []int
	Kind       Kind
	Data       []float64
	Text       []string
	Attrs      *Attrs
	Coordinate bool
}

// NewVariable creates a numeric float64 variable
func NewVariable(name string, dims []string, shape []int, data []float64) *Variable {
	return &Variable{
		Name:  name,
		Dims:  dims,
		Shape: shape,
		Kind:  KindFloat64,
		Data:  data,
		Attrs: NewAttrs(),
	}
}

// NewScalar creates a zero-dimensional float64 variable
func NewScalar(name string, value float64) *Variable {
	return NewVariable(name, nil, nil, []float64{value})
}

// Size is the number of elements implied by the shape
func (v *Variable) Size() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

// IsScalar reports whether the variable has no dimensions
func (v *Variable) IsScalar() bool {
	return len(v.Dims) == 0
}

// ValidValues returns the non-NaN values
func (v *Variable) ValidValues() []float64 {
	out := make([]float64, 0, len(v.Data))
	for _, x := range v.Data {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Clone returns a deep copy of the variable
func (v *Variable) Clone() *Variable {
	return &Variable{
		Name:       v.Name,
		Dims:       append([]string(nil), v.Dims...),
		Shape:      append([]int(nil), v.Shape...),
		Kind:       v.Kind,
		Data:       append([]float64(nil), v.Data...),
		Text:       append([]string(nil), v.Text...),
		Attrs:      v.Attrs.Clone(),
		Coordinate: v.Coordinate,
	}
}

// Dataset is the in-memory form of a NetCDF file: global attributes,
// dimensions and ordered variables.
type Dataset struct {
	Path  string
	Attrs *Attrs

	dims  []Dimension
	vars  []*Variable
	index map[string]int
}

// NewDataset creates an empty dataset bound to a path
func NewDataset(path string) *Dataset {
	return &Dataset{
		Path:  path,
		Attrs: NewAttrs(),
		index: make(map[string]int),
	}
}

// Dimensions returns the dimensions in declaration order
func (d *Dataset) Dimensions() []Dimension {
	return append([]Dimension(nil), d.dims...)
}

// DimensionLen returns the length of a dimension
func (d *Dataset) DimensionLen(name string) (int, bool) {
	for _, dim := range d.dims {
		if dim.Name == name {
			return dim.Len, true
		}
	}
	return 0, false
}

// SetDimension declares or resizes a dimension
func (d *Dataset) SetDimension(name string, length int) {
	for i, dim := range d.dims {
		if dim.Name == name {
			d.dims[i].Len = length
			return
		}
	}
	d.dims = append(d.dims, Dimension{Name: name, Len: length})
}

// AddVariable appends a variable, declaring missing dimensions from its shape
func (d *Dataset) AddVariable(v *Variable) error {
	if v == nil || v.Name == "" {
		return errors.New("variable must have a name")
	}
	if _, exists := d.index[v.Name]; exists {
		return fmt.Errorf("variable %q already exists", v.Name)
	}
	if len(v.Shape) != len(v.Dims) {
		return fmt.Errorf("variable %q: %d dimensions but shape of rank %d", v.Name, len(v.Dims), len(v.Shape))
	}
	for i, dim := range v.Dims {
		if n, ok := d.DimensionLen(dim); ok {
			if n != v.Shape[i] {
				return fmt.Errorf("variable %q: dimension %s has length %d, not %d", v.Name, dim, n, v.Shape[i])
			}
			continue
		}
		d.SetDimension(dim, v.Shape[i])
	}
	if v.Attrs == nil {
		v.Attrs = NewAttrs()
	}
	d.index[v.Name] = len(d.vars)
	d.vars = append(d.vars, v)
	return nil
}

// AddCoordinate appends a variable flagged as a coordinate
func (d *Dataset) AddCoordinate(v *Variable) error {
	v.Coordinate = true
	return d.AddVariable(v)
}

// Variable looks a variable up by exact name
func (d *Dataset) Variable(name string) (*Variable, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.vars[i], true
}

// HasVariable reports whether a variable with this exact name exists
func (d *Dataset) HasVariable(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Variables returns every variable, coordinates included
func (d *Dataset) Variables() []*Variable {
	return append([]*Variable(nil), d.vars...)
}

// DataVars returns the variables that are not coordinates
func (d *Dataset) DataVars() []*Variable {
	out := make([]*Variable, 0, len(d.vars))
	for _, v := range d.vars {
		if !v.Coordinate {
			out = append(out, v)
		}
	}
	return out
}

// Coords returns the coordinate variables
func (d *Dataset) Coords() []*Variable {
	var out []*Variable
	for _, v := range d.vars {
		if v.Coordinate {
			out = append(out, v)
		}
	}
	return out
}

// VariableNames returns all variable names in order
func (d *Dataset) VariableNames() []string {
	names := make([]string, len(d.vars))
	for i, v := range d.vars {
		names[i] = v.Name
	}
	return names
}

// CoordNameContains reports whether any coordinate name contains the
// substring, case-insensitively.
func (d *Dataset) CoordNameContains(sub string) bool {
	_, ok := d.FirstCoordContaining(sub)
	return ok
}

// FirstCoordContaining returns the first coordinate whose lowercased name
// contains the substring.
func (d *Dataset) FirstCoordContaining(sub string) (*Variable, bool) {
	sub = strings.ToLower(sub)
	for _, v := range d.vars {
		if v.Coordinate && strings.Contains(strings.ToLower(v.Name), sub) {
			return v, true
		}
	}
	return nil, false
}

// Clone returns a deep, independent copy
func (d *Dataset) Clone() *Dataset {
	c := NewDataset(d.Path)
	c.Attrs = d.Attrs.Clone()
	c.dims = append([]Dimension(nil), d.dims...)
	for _, v := range d.vars {
		c.index[v.Name] = len(c.vars)
		c.vars = append(c.vars, v.Clone())
	}
	return c
}
