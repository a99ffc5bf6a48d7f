// pkg/cleaner/operations.go
package cleaner

import (
	"math"
	"strings"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// Fixed-width NetCDF char arrays are padded with blanks or NULs
const padding = " \t\r\n\x00"

// trimAttributes strips padding from string attribute values
func trimAttributes(attrs *model.Attrs, variable string) []model.CleaningOperation {
	var operations []model.CleaningOperation
	for _, key := range attrs.Keys() {
		raw, _ := attrs.Get(key)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		trimmed := strings.Trim(s, padding)
		if trimmed == s {
			continue
		}
		attrs.Set(key, trimmed)
		operations = append(operations, model.CleaningOperation{
			Variable:      variable,
			Attribute:     key,
			OriginalValue: s,
			NewValue:      trimmed,
			Operation:     "attribute_trim",
			Reason:        "padded_string",
			Count:         1,
		})
	}
	return operations
}

// trimText strips trailing padding from the elements of a char variable
func trimText(v *model.Variable) *model.CleaningOperation {
	if v.Kind != model.KindText {
		return nil
	}
	count := 0
	for i, s := range v.Text {
		if trimmed := strings.TrimRight(s, padding); trimmed != s {
			v.Text[i] = trimmed
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &model.CleaningOperation{
		Variable:  v.Name,
		Operation: "text_trim",
		Reason:    "fixed_width_padding",
		Count:     count,
	}
}

// maskMissingValue turns missing_value sentinels of floating variables into
// NaN, matching how _FillValue is read
func maskMissingValue(v *model.Variable) *model.CleaningOperation {
	if !isFloating(v.Kind) {
		return nil
	}
	missing, ok := v.Attrs.Float("missing_value")
	if !ok || math.IsNaN(missing) {
		return nil
	}

	count := 0
	for i, x := range v.Data {
		if x == missing || (v.Kind == model.KindFloat32 && float32(x) == float32(missing)) {
			v.Data[i] = math.NaN()
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &model.CleaningOperation{
		Variable:      v.Name,
		Attribute:     "missing_value",
		OriginalValue: missing,
		NewValue:      "NaN",
		Operation:     "missing_value_mask",
		Reason:        "missing_value_sentinel",
		Count:         count,
	}
}

// maskNonFinite replaces infinities, which no statistic can use, with NaN
func maskNonFinite(v *model.Variable) *model.CleaningOperation {
	if !isFloating(v.Kind) {
		return nil
	}
	count := 0
	for i, x := range v.Data {
		if math.IsInf(x, 0) {
			v.Data[i] = math.NaN()
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &model.CleaningOperation{
		Variable:  v.Name,
		NewValue:  "NaN",
		Operation: "non_finite_mask",
		Reason:    "infinite_value",
		Count:     count,
	}
}

func isFloating(k model.Kind) bool {
	return k == model.KindFloat32 || k == model.KindFloat64
}
