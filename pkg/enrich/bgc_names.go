// pkg/enrich/bgc_names.go
package enrich

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

const adjustedComment = "Adjusted value after application of real-time " +
	"and delayed-mode quality control procedures"

// Core and biogeochemical parameters checked by Validate
var bgcKeyVariables = []string{"PRES", "TEMP", "PSAL", "PH_IN_SITU_TOTAL", "DOXY", "NITRATE", "CHLA"}

// BGCStandardNameMapper maps BGC-Argo variable names to CF standard_name,
// long_name, units and axis attributes.
type BGCStandardNameMapper struct {
	base
}

// NewBGCStandardNameMapper creates a BGCStandardNameMapper
func NewBGCStandardNameMapper(logger *zap.Logger) (*BGCStandardNameMapper, error) {
	b, err := newBase("bgc_names", logger)
	if err != nil {
		return nil, err
	}
	return &BGCStandardNameMapper{base: b}, nil
}

// Enrich maps every non-dimension variable
func (e *BGCStandardNameMapper) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Mapping BGC-Argo variables to CF standard names")
	for _, v := range out.Variables() {
		if _, isDim := out.DimensionLen(v.Name); isDim {
			continue
		}
		e.mapVariable(v)
	}
	return out, nil
}

func (e *BGCStandardNameMapper) mapVariable(v *model.Variable) {
	entry, known := bgcVariables[v.Name]
	qc := isBGCQCVariable(v.Name)

	switch {
	case known:
		e.addVarAttr(v, "standard_name", entry.standardName)
	case !qc:
		stem := strings.ReplaceAll(strings.ReplaceAll(v.Name, "_ADJUSTED", ""), "_QC", "")
		if inferred, ok := bgcVariables[stem]; ok {
			e.addAttr(v.Attrs, "standard_name", inferred.standardName,
				fmt.Sprintf("%s: standard_name = %s (inferred)", v.Name, inferred.standardName))
		}
	}

	switch {
	case known && entry.longName != "":
		e.addVarAttr(v, "long_name", entry.longName)
	case !qc:
		e.addVarAttr(v, "long_name", bgcLongName(v.Name))
	}

	// JULD units stay with the time encoding
	if known && entry.units != "" && v.Name != "JULD" {
		e.addVarAttr(v, "units", entry.units)
	}

	if ax, ok := bgcAxes[v.Name]; ok {
		e.addAttr(v.Attrs, "axis", ax, fmt.Sprintf("%s: axis = %s", v.Name, ax))
	}

	if strings.Contains(v.Name, "_ADJUSTED") {
		e.addAttr(v.Attrs, "comment", adjustedComment, v.Name+": added adjustment comment")
	}
}

// isBGCQCVariable matches quality flags and adjustment error estimates
func isBGCQCVariable(name string) bool {
	return containsAny(name, "_QC", "QARTOD", "ADJUSTED_ERROR")
}

// bgcLongName generates a readable name, keeping the suffix meaning
func bgcLongName(name string) string {
	switch {
	case strings.HasSuffix(name, "_ADJUSTED"):
		return titleName(strings.TrimSuffix(name, "_ADJUSTED"), bgcNameReplacements) + " (Adjusted)"
	case strings.HasSuffix(name, "_QC"):
		return titleName(strings.TrimSuffix(name, "_QC"), bgcNameReplacements) + " Quality Flag"
	case strings.HasSuffix(name, "_ADJUSTED_ERROR"):
		return titleName(strings.TrimSuffix(name, "_ADJUSTED_ERROR"), bgcNameReplacements) + " Adjusted Error"
	}
	return titleName(name, bgcNameReplacements)
}

// Validate requires standard_name on the key parameters that are present,
// preferring the raw variable over its adjusted form.
func (e *BGCStandardNameMapper) Validate(ds *model.Dataset) bool {
	var checked, missing []string
	for _, name := range bgcKeyVariables {
		v, ok := ds.Variable(name)
		if !ok {
			v, ok = ds.Variable(name + "_ADJUSTED")
		}
		if !ok {
			continue
		}
		checked = append(checked, v.Name)
		if !v.Attrs.Has("standard_name") {
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		e.logger.Warn("Variables missing standard_name", zap.Strings("variables", missing))
		return false
	}
	e.logger.Info("BGC standard name validation passed", zap.Int("checked", len(checked)))
	return true
}
