// pkg/enrich/metadata.go
package enrich

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/converter"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/model"
)

const (
	defaultConventions = "CF-1.6, ACDD-1.3"

	qcMethodology = "Data quality controlled using OOI quality control procedures. " +
		"QARTOD flags indicate data quality: " +
		"1=Good, 2=Unknown, 3=Suspect, 4=Bad. " +
		"QC results indicate compliance with specific test criteria."
)

var (
	identifierAttrs = []string{"id", "uuid", "doi", "identifier"}
	identifierParts = []string{"node", "sensor", "method", "stream"}
)

// MetadataEnricher fills OOI global attribute defaults, stamps creation and
// modification times, and synthesizes an identifier.
//
// date_modified and history change on every call; history grows by one
// entry per run.
type MetadataEnricher struct {
	base
	now func() time.Time
}

// NewMetadataEnricher creates a MetadataEnricher
func NewMetadataEnricher(logger *zap.Logger) (*MetadataEnricher, error) {
	b, err := newBase("metadata", logger)
	if err != nil {
		return nil, err
	}
	return &MetadataEnricher{base: b, now: time.Now}, nil
}

// Enrich adds the missing global metadata
func (e *MetadataEnricher) Enrich(ds *model.Dataset) (*model.Dataset, error) {
	out := e.begin(ds, "Enriching global metadata")
	now := e.now().UTC()

	for _, d := range ooiMetadataDefaults {
		e.addAttr(out.Attrs, d.key, d.value, fmt.Sprintf("Added %s = %s", d.key, d.value))
	}
	e.conventions(out.Attrs)
	e.timestamps(out.Attrs, now)
	e.qcDocumentation(out)
	e.identifier(out.Attrs, now)
	return out, nil
}

// conventions makes sure CF is listed, keeping any existing conventions
func (e *MetadataEnricher) conventions(attrs *model.Attrs) {
	if !attrs.Has("Conventions") {
		attrs.Set("Conventions", defaultConventions)
		e.change("attribute_added", "Added Conventions = "+defaultConventions)
		return
	}
	current := attrs.String("Conventions")
	if strings.Contains(current, "CF") {
		return
	}
	if current != "" {
		attrs.Set("Conventions", "CF-1.6, "+current)
	} else {
		attrs.Set("Conventions", defaultConventions)
	}
	e.change("attribute_updated", "Updated Conventions to include CF")
}

func (e *MetadataEnricher) timestamps(attrs *model.Attrs, now time.Time) {
	stamp := converter.FormatISO(now)

	if !attrs.Has("date_created") {
		created := stamp
		if attrs.Has("time_coverage_start") {
			created = attrs.String("time_coverage_start")
		}
		attrs.Set("date_created", created)
		e.change("attribute_added", "Added date_created")
	}

	attrs.Set("date_modified", stamp)
	attrs.Set("history", fmt.Sprintf("%s: Enriched by OOI FAIR Pipeline; %s", stamp, attrs.String("history")))
	e.change("attribute_updated", "Updated date_modified and history")
}

func (e *MetadataEnricher) qcDocumentation(ds *model.Dataset) {
	if ds.Attrs.Has("quality_control_methodology") {
		return
	}
	for _, v := range ds.DataVars() {
		if containsAny(strings.ToLower(v.Name), "qc", "qartod") {
			e.addAttr(ds.Attrs, "quality_control_methodology", qcMethodology, "Added quality_control_methodology")
			return
		}
	}
}

func (e *MetadataEnricher) identifier(attrs *model.Attrs, now time.Time) {
	if attrs.HasAny(identifierAttrs...) {
		return
	}

	var parts []string
	for _, key := range identifierParts {
		if attrs.Has(key) {
			parts = append(parts, attrs.String(key))
		}
	}
	if len(parts) > 0 {
		id := strings.Join(parts, "-")
		e.addAttr(attrs, "id", id, "Added id = "+id)
		return
	}
	e.addAttr(attrs, "id", "ooi-dataset-"+now.Format("20060102150405"), "Added id (timestamp-based)")
}

// Validate requires the core ACDD attributes
func (e *MetadataEnricher) Validate(ds *model.Dataset) bool {
	if missing := missingAttrs(ds.Attrs, "title", "summary", "Conventions", "institution"); len(missing) > 0 {
		e.logger.Error("Validation failed", zap.Strings("missing", missing))
		return false
	}
	e.logger.Info("Metadata validation passed")
	return true
}
