// pkg/enrich/variable.go
package enrich

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

// VariableEnricher adds standard_name, units, long_name and valid range
// attributes to data variables.
type VariableEnricher struct {
	base
}

// NewVariableEnricher creates a VariableEnricher
func NewVariableEnricher(logger *zap.Logger) (*VariableEnricher, error) {
	b, err := newBase("variable", logger)
	if err != nil {
		return nil, err
	}
	return &VariableEnricher{base: b}, nil
}

// Enrich fills in the missing variable attributes
func (e *VariableEnricher) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Enriching variable metadata")
	for _, v := range out.DataVars() {
		if isQCVariable(v.Name) || isTimestampVariable(v.Name) {
			continue
		}
		e.enrichVariable(v)
	}
	return out, nil
}

func (e *VariableEnricher) enrichVariable(v *model.Variable) {
	if !v.Attrs.Has("standard_name") {
		if name, ok := StandardName(v.Name); ok {
			e.addVarAttr(v, "standard_name", name)
		} else {
			e.issue("no_standard_name", fmt.Sprintf("Could not determine standard_name for %s", v.Name))
		}
	}

	if !v.Attrs.Has("units") {
		if units, ok := Units(v.Attrs.String("standard_name"), v.Name); ok {
			e.addVarAttr(v, "units", units)
		} else {
			e.addAttr(v.Attrs, "units", "1", fmt.Sprintf("%s: units = 1 (dimensionless)", v.Name))
			e.issue("unknown_units", fmt.Sprintf("Unknown units for %s, set to dimensionless", v.Name))
		}
	}

	if !v.Attrs.Has("long_name") {
		e.addVarAttr(v, "long_name", titleName(v.Name, ooiNameReplacements))
	}

	// Best effort: text and all-NaN variables have no range.
	if !v.Kind.IsNumeric() {
		return
	}
	valid := v.ValidValues()
	if len(valid) == 0 {
		return
	}
	if !v.Attrs.Has("valid_min") {
		lo := floats.Min(valid)
		e.addAttr(v.Attrs, "valid_min", lo, fmt.Sprintf("%s: valid_min = %.3f", v.Name, lo))
	}
	if !v.Attrs.Has("valid_max") {
		hi := floats.Max(valid)
		e.addAttr(v.Attrs, "valid_max", hi, fmt.Sprintf("%s: valid_max = %.3f", v.Name, hi))
	}
}

// isQCVariable matches flag and quality variables by name
func isQCVariable(name string) bool {
	return containsAny(strings.ToLower(name), "qc", "qartod", "flag", "quality")
}

func isTimestampVariable(name string) bool {
	return containsAny(strings.ToLower(name), "timestamp", "_time", "time_")
}

// Validate requires units and long_name on every non-QC data variable
func (e *VariableEnricher) Validate(ds *model.Dataset) bool {
	var problems []string
	for _, v := range ds.DataVars() {
		if isQCVariable(v.Name) {
			continue
		}
		if !v.Attrs.Has("units") {
			problems = append(problems, v.Name+": missing units")
		}
		if !v.Attrs.Has("long_name") {
			problems = append(problems, v.Name+": missing long_name")
		}
	}
	if len(problems) > 0 {
		shown := problems
		if len(shown) > 5 {
			shown = shown[:5]
		}
		e.logger.Error("Validation failed",
			zap.Int("issues", len(problems)),
			zap.Strings("first_issues", shown))
		return false
	}
	e.logger.Info("Variable validation passed")
	return true
}
