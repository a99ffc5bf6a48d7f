// pkg/connector/json.go
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// JSONConnector stores datasets as a lossless JSON document
type JSONConnector struct {
	logger *zap.Logger
}

// NewJSONConnector creates a JSON dataset connector
func NewJSONConnector(logger *zap.Logger) *JSONConnector {
	return &JSONConnector{logger: logger.Named("json-connector")}
}

// Name identifies the connector
func (c *JSONConnector) Name() string {
	return "json"
}

type jsonAttr struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type jsonVariable struct {
	Name       string     `json:"name"`
	Dims       []string   `json:"dims"`
	Shape      []int      `json:"shape"`
	Kind       model.Kind `json:"kind"`
	Data       []*float64 `json:"data,omitempty"`
	Text       []string   `json:"text,omitempty"`
	Attributes []jsonAttr `json:"attributes"`
	Coordinate bool       `json:"coordinate,omitempty"`
}

type jsonDataset struct {
	Attributes []jsonAttr        `json:"attributes"`
	Dimensions []model.Dimension `json:"dimensions"`
	Variables  []jsonVariable    `json:"variables"`
}

// Open reads a dataset document
func (c *JSONConnector) Open(ctx context.Context, path string) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}

	var doc jsonDataset
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataLoad, path, err)
	}

	ds := model.NewDataset(path)
	if err := decodeAttrs(doc.Attributes, ds.Attrs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	for _, d := range doc.Dimensions {
		ds.SetDimension(d.Name, d.Len)
	}
	for _, jv := range doc.Variables {
		v := &model.Variable{
			Name:       jv.Name,
			Dims:       jv.Dims,
			Shape:      jv.Shape,
			Kind:       jv.Kind,
			Text:       jv.Text,
			Attrs:      model.NewAttrs(),
			Coordinate: jv.Coordinate,
		}
		if len(jv.Data) > 0 {
			v.Data = make([]float64, len(jv.Data))
			for i, p := range jv.Data {
				if p == nil {
					v.Data[i] = math.NaN()
				} else {
					v.Data[i] = *p
				}
			}
		}
		if err := decodeAttrs(jv.Attributes, v.Attrs); err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", ErrDataLoad, jv.Name, err)
		}
		if err := ds.AddVariable(v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
	}
	return ds, nil
}

// Save writes a dataset document, creating parent directories
func (c *JSONConnector) Save(ctx context.Context, ds *model.Dataset, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := jsonDataset{Dimensions: ds.Dimensions()}
	attrs, err := encodeAttrs(ds.Attrs)
	if err != nil {
		return err
	}
	doc.Attributes = attrs

	for _, v := range ds.Variables() {
		jv := jsonVariable{
			Name:       v.Name,
			Dims:       v.Dims,
			Shape:      v.Shape,
			Kind:       v.Kind,
			Text:       v.Text,
			Coordinate: v.Coordinate,
		}
		for i := range v.Data {
			if math.IsNaN(v.Data[i]) {
				jv.Data = append(jv.Data, nil)
				continue
			}
			x := v.Data[i]
			jv.Data = append(jv.Data, &x)
		}
		if jv.Attributes, err = encodeAttrs(v.Attrs); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		doc.Variables = append(doc.Variables, jv)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	c.logger.Info("Dataset written",
		zap.String("path", path),
		zap.Int("variables", len(doc.Variables)))
	return nil
}

func encodeAttrs(attrs *model.Attrs) ([]jsonAttr, error) {
	out := make([]jsonAttr, 0, attrs.Len())
	for _, k := range attrs.Keys() {
		v, _ := attrs.Get(k)
		typ, value := attrType(v)
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		out = append(out, jsonAttr{Name: k, Type: typ, Value: raw})
	}
	return out, nil
}

func attrType(v interface{}) (string, interface{}) {
	switch t := v.(type) {
	case string:
		return "string", t
	case []string:
		return "strings", t
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return "int", t
	case float32:
		return "float", float64(t)
	case float64:
		return "float", t
	case []int8, []int16, []int32, []int64, []int:
		return "ints", t
	case []float32, []float64:
		return "floats", t
	default:
		return "string", fmt.Sprint(t)
	}
}

func decodeAttrs(in []jsonAttr, dst *model.Attrs) error {
	for _, a := range in {
		var err error
		switch a.Type {
		case "string":
			var s string
			err = json.Unmarshal(a.Value, &s)
			dst.Set(a.Name, s)
		case "strings":
			var s []string
			err = json.Unmarshal(a.Value, &s)
			dst.Set(a.Name, s)
		case "int":
			var n int64
			err = json.Unmarshal(a.Value, &n)
			dst.Set(a.Name, n)
		case "float":
			var f float64
			err = json.Unmarshal(a.Value, &f)
			dst.Set(a.Name, f)
		case "ints":
			var n []int64
			err = json.Unmarshal(a.Value, &n)
			dst.Set(a.Name, n)
		case "floats":
			var f []float64
			err = json.Unmarshal(a.Value, &f)
			dst.Set(a.Name, f)
		default:
			err = fmt.Errorf("unknown attribute type %q", a.Type)
		}
		if err != nil {
			return fmt.Errorf("attribute %s: %w", a.Name, err)
		}
	}
	return nil
}
