// pkg/model/attrs.go
package model

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Attrs is an insertion-ordered attribute bag, used for both global and
// per-variable NetCDF attributes.
type Attrs struct {
	keys   []string
	values map[string]interface{}
}

// NewAttrs creates an empty attribute bag
func NewAttrs() *Attrs {
	return &Attrs{values: make(map[string]interface{})}
}

// AttrsFrom builds an attribute bag from keys in the given order
func AttrsFrom(keys []string, values map[string]interface{}) *Attrs {
	a := NewAttrs()
	for _, k := range keys {
		if v, ok := values[k]; ok {
			a.Set(k, v)
		}
	}
	return a
}

// Get returns the raw attribute value
func (a *Attrs) Get(key string) (interface{}, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether the attribute is present, regardless of its value
func (a *Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// HasAny reports whether at least one of the keys is present
func (a *Attrs) HasAny(keys ...string) bool {
	for _, k := range keys {
		if a.Has(k) {
			return true
		}
	}
	return false
}

// Set adds or overwrites an attribute. New keys are appended to the order.
func (a *Attrs) Set(key string, value interface{}) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// SetDefault sets the attribute only when it is absent and reports whether
// it did so.
func (a *Attrs) SetDefault(key string, value interface{}) bool {
	if a.Has(key) {
		return false
	}
	a.Set(key, value)
	return true
}

// Delete removes an attribute
func (a *Attrs) Delete(key string) {
	if !a.Has(key) {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// String returns the attribute rendered as a string, or "" when absent
func (a *Attrs) String(key string) string {
	v, ok := a.Get(key)
	if !ok {
		return ""
	}
	return toString(v)
}

// Float returns the attribute as a float64. Non-numeric values, NaN and
// multi-element arrays report false; single-element arrays are unwrapped.
func (a *Attrs) Float(key string) (float64, bool) {
	v, ok := a.Get(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Keys returns the attribute names in insertion order
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Map returns a shallow copy of the attributes as a plain map
func (a *Attrs) Map() map[string]interface{} {
	out := make(map[string]interface{}, a.Len())
	for _, k := range a.Keys() {
		out[k] = a.values[k]
	}
	return out
}

// Clone returns an independent copy. Slice values are copied too.
func (a *Attrs) Clone() *Attrs {
	c := NewAttrs()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, cloneValue(a.values[k]))
	}
	return c
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...)
	case []float32:
		return append([]float32(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []int8:
		return append([]int8(nil), t...)
	case []int16:
		return append([]int16(nil), t...)
	case []int32:
		return append([]int32(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		return append([]interface{}(nil), t...)
	default:
		return v
	}
}

// toFloat coerces an attribute value to float64. Strings must parse as
// numbers.
func toFloat(value interface{}) (float64, bool) {
	if isNull(value) {
		return 0, false
	}
	switch v := value.(type) {
	case []float64:
		return single(v)
	case []float32:
		return single(v)
	case []int64:
		return single(v)
	case []int32:
		return single(v)
	case []int16:
		return single(v)
	case []int8:
		return single(v)
	case []int:
		return single(v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return f, true
}

type number interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int16 | ~int8 | ~int
}

// single unwraps a one-element numeric array
func single[T number](v []T) (float64, bool) {
	if len(v) != 1 {
		return 0, false
	}
	return toFloat(float64(v[0]))
}

func toString(value interface{}) string {
	if isNull(value) {
		return ""
	}
	if ss, ok := value.([]string); ok {
		return strings.Join(ss, ", ")
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

// isNull checks if a value should be treated as missing
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	return false
}
