// pkg/enrich/argo_metadata.go
package enrich

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/converter"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

const argoSummaryTemplate = "Biogeochemical-Argo (BGC-Argo) float %s profile data. " +
	"BGC-Argo floats measure ocean biogeochemical parameters including pH, " +
	"dissolved oxygen, nitrate, and chlorophyll-a in addition to physical " +
	"properties. Data are collected via autonomous profiling floats that " +
	"drift with ocean currents and profile from the surface to 2000m depth " +
	"approximately every 10 days. BGC-Argo data are critical for understanding " +
	"ocean carbon cycling, acidification, and provide essential baseline " +
	"monitoring for marine carbon dioxide removal (mCDR) verification."

const argoGenericSummary = "Biogeochemical-Argo (BGC-Argo) float profile data with measurements of " +
	"ocean pH, dissolved oxygen, nitrate, and chlorophyll-a alongside physical " +
	"properties."

// ArgoMetadataEnricher adds Argo program discovery metadata. The float's WMO
// number comes from the dataset file name; without it the WMO-derived
// attributes are skipped and everything else is still added.
type ArgoMetadataEnricher struct {
	base
	wmo string
	dac string
}

// NewArgoMetadataEnricher creates an ArgoMetadataEnricher
func NewArgoMetadataEnricher(logger *zap.Logger) (*ArgoMetadataEnricher, error) {
	b, err := newBase("argo_metadata", logger)
	if err != nil {
		return nil, err
	}
	return &ArgoMetadataEnricher{base: b}, nil
}

// WMO returns the float number found by the last Enrich call
func (e *ArgoMetadataEnricher) WMO() string { return e.wmo }

// DAC returns the Data Assembly Centre guessed by the last Enrich call
func (e *ArgoMetadataEnricher) DAC() string { return e.dac }

// Enrich adds the Argo program metadata
func (e *ArgoMetadataEnricher) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Enriching Argo program metadata")
	e.wmo, e.dac = "", ""

	if ds.Path != "" {
		wmo, ok := converter.ExtractWMO(ds.Path)
		if ok {
			e.wmo = wmo
		} else {
			e.issue("no_wmo_number", "Could not extract WMO number from "+filepath.Base(ds.Path))
		}
		e.dac = converter.GuessDAC(ds.Path)
		e.logger.Debug("Resolved float", zap.String("wmo", e.wmo), zap.String("dac", e.dac))
	}

	attrs := out.Attrs
	e.identifiers(attrs)

	e.addAttr(attrs, "program", "Argo", "Added program: Argo")
	e.addAttr(attrs, "project", "Biogeochemical-Argo", "Added project: Biogeochemical-Argo")

	for _, d := range argoCreator {
		e.addAttr(attrs, d.key, d.value, fmt.Sprintf("Added %s: %s", d.key, d.value))
	}
	for _, d := range argoPublisher {
		e.addAttr(attrs, d.key, d.value, fmt.Sprintf("Added %s: %s", d.key, d.value))
	}
	e.addAttr(attrs, "institution", "Argo", "Added institution: Argo")
	e.addAttr(attrs, "license", argoLicense, "Added Argo data license")

	if e.dac != "" && e.dac != converter.DefaultDAC {
		e.addAttr(attrs, "data_assembly_centre", e.dac, "Added data_assembly_centre: "+e.dac)
	}

	if e.wmo != "" {
		source := fmt.Sprintf("https://data-argo.ifremer.fr/dac/%s/%s/", e.dacDirectory(), e.wmo)
		e.addAttr(attrs, "source", source, "Added source: "+source)
		datasetID := "ArgoFloats-" + e.wmo
		e.addAttr(attrs, "datasetID", datasetID, "Added datasetID: "+datasetID)
	}

	e.addAttr(attrs, "acknowledgement", argoAcknowledge, "Added acknowledgement text")
	e.addAttr(attrs, "citation", argoCitation, "Added citation")
	e.references(attrs)

	e.addAttr(attrs, "keywords", strings.Join(argoKeywords, ", "),
		fmt.Sprintf("Added %d keywords for discovery", len(argoKeywords)))
	e.addAttr(attrs, "keywords_vocabulary", "GCMD Science Keywords", "Added keywords_vocabulary: GCMD")

	summary := argoGenericSummary
	if e.wmo != "" {
		summary = fmt.Sprintf(argoSummaryTemplate, e.wmo)
	}
	e.addAttr(attrs, "summary", summary, "Added descriptive summary")

	return out, nil
}

// dacDirectory is the GDAC directory holding the float, aoml unless the
// path named another centre
func (e *ArgoMetadataEnricher) dacDirectory() string {
	if e.dac == "" || e.dac == converter.DefaultDAC {
		return "aoml"
	}
	return strings.ToLower(e.dac)
}

func (e *ArgoMetadataEnricher) identifiers(attrs *model.Attrs) {
	if e.wmo != "" {
		id := "ARGO-BGC-" + e.wmo
		e.addAttr(attrs, "id", id, "Added id: "+id)
		e.addAttr(attrs, "naming_authority", "org.argo", "Added naming_authority: org.argo")
		e.addAttr(attrs, "wmo_platform_code", e.wmo, "Added wmo_platform_code: "+e.wmo)
	} else {
		e.issue("no_identifier", "Could not create unique identifier (no WMO number)")
	}
	e.addAttr(attrs, "doi", argoDOI, "Added Argo data DOI: "+argoDOI)
}

// references appends the Argo URLs to existing references once
func (e *ArgoMetadataEnricher) references(attrs *model.Attrs) {
	if !attrs.Has("references") {
		attrs.Set("references", argoReferences)
		e.change("attribute_added", "Added references")
		return
	}
	current := attrs.String("references")
	if strings.Contains(strings.ToLower(current), "argo.ucsd.edu") {
		return
	}
	attrs.Set("references", current+"; "+argoReferences)
	e.change("attribute_updated", "Updated references with Argo URLs")
}

// Validate requires program, license, creator and publisher plus an identifier
func (e *ArgoMetadataEnricher) Validate(ds *model.Dataset) bool {
	if missing := missingAttrs(ds.Attrs, "program", "license", "creator_name", "publisher_name"); len(missing) > 0 {
		e.logger.Warn("Missing required Argo attributes", zap.Strings("missing", missing))
		return false
	}
	if !ds.Attrs.HasAny("id", "wmo_platform_code", "doi") {
		e.logger.Warn("No unique identifier found")
		return false
	}
	e.logger.Info("Argo metadata validation passed")
	return true
}
