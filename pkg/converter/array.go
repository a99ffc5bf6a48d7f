// pkg/converter/array.go
package converter

import (
	"fmt"
	"math"
	"reflect"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// Flattened is a row-major copy of a (possibly nested) slice of values
type Flattened struct {
	Kind  model.Kind
	Data  []float64
	Text  []string
	Shape []int
}

// Flatten walks nested slices of numbers or strings and returns their
// values in row-major order together with the nesting shape. A bare scalar
// has an empty shape.
func Flatten(values interface{}) (Flattened, error) {
	if values == nil {
		return Flattened{}, fmt.Errorf("cannot flatten nil values")
	}

	rv := reflect.ValueOf(values)
	var shape []int
	elem := rv.Type()
	probe := rv
	for elem.Kind() == reflect.Slice {
		shape = append(shape, probe.Len())
		elem = elem.Elem()
		if probe.Len() > 0 {
			probe = probe.Index(0)
		} else {
			probe = reflect.Zero(elem)
		}
	}

	kind, err := kindOfElem(elem.Kind())
	if err != nil {
		return Flattened{}, err
	}

	out := Flattened{Kind: kind, Shape: shape}
	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		if v.Kind() == reflect.Slice {
			for i := 0; i < v.Len(); i++ {
				walk(v.Index(i))
			}
			return
		}
		switch v.Kind() {
		case reflect.String:
			out.Text = append(out.Text, v.String())
		case reflect.Float32, reflect.Float64:
			out.Data = append(out.Data, v.Float())
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out.Data = append(out.Data, float64(v.Uint()))
		default:
			out.Data = append(out.Data, float64(v.Int()))
		}
	}
	walk(rv)
	return out, nil
}

func kindOfElem(k reflect.Kind) (model.Kind, error) {
	switch k {
	case reflect.Float64:
		return model.KindFloat64, nil
	case reflect.Float32:
		return model.KindFloat32, nil
	case reflect.Int32, reflect.Int64, reflect.Int, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return model.KindInt32, nil
	case reflect.Int16, reflect.Uint8:
		return model.KindInt16, nil
	case reflect.Int8:
		return model.KindInt8, nil
	case reflect.String:
		return model.KindText, nil
	default:
		return "", fmt.Errorf("unsupported element type %s", k)
	}
}

// Unflatten rebuilds typed nested slices from flat values. An empty shape
// yields a bare scalar.
func Unflatten(kind model.Kind, data []float64, text []string, shape []int) (interface{}, error) {
	var elem reflect.Type
	switch kind {
	case model.KindFloat64:
		elem = reflect.TypeOf(float64(0))
	case model.KindFloat32:
		elem = reflect.TypeOf(float32(0))
	case model.KindInt32:
		elem = reflect.TypeOf(int32(0))
	case model.KindInt16:
		elem = reflect.TypeOf(int16(0))
	case model.KindInt8:
		elem = reflect.TypeOf(int8(0))
	case model.KindText:
		elem = reflect.TypeOf("")
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}

	n := 1
	for _, s := range shape {
		n *= s
	}
	have := len(data)
	if kind == model.KindText {
		have = len(text)
	}
	if have != n {
		return nil, fmt.Errorf("shape %v needs %d values, have %d", shape, n, have)
	}

	pos := 0
	var build func(depth int) reflect.Value
	build = func(depth int) reflect.Value {
		if depth == len(shape) {
			v := reflect.New(elem).Elem()
			if kind == model.KindText {
				v.SetString(text[pos])
			} else {
				setNumber(v, data[pos])
			}
			pos++
			return v
		}
		t := elem
		for i := len(shape) - 1; i >= depth; i-- {
			t = reflect.SliceOf(t)
		}
		s := reflect.MakeSlice(t, shape[depth], shape[depth])
		for i := 0; i < shape[depth]; i++ {
			s.Index(i).Set(build(depth + 1))
		}
		return s
	}
	return build(0).Interface(), nil
}

func setNumber(v reflect.Value, x float64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(x)
	default:
		if math.IsNaN(x) {
			x = 0
		}
		v.SetInt(int64(math.Round(x)))
	}
}
