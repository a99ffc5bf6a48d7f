// pkg/assess/rubric.go
package assess

// CheckType selects how a metric's required attributes are scored
type CheckType string

const (
	// CheckAny passes when at least one attribute is present
	CheckAny CheckType = "any"
	// CheckAll passes only when every attribute is present
	CheckAll CheckType = "all"
	// CheckMost passes when at least 67% of the attributes are present
	CheckMost CheckType = "most"
	// CheckVariables scores the share of data variables carrying an attribute
	CheckVariables CheckType = "variables"
	// CheckCustom marks metrics scored by a dedicated rule
	CheckCustom CheckType = "custom"
)

// mostThreshold is the fraction of required attributes a "most" check needs; 0.67, not 2/3
const mostThreshold = 0.67

// Principle names one FAIR principle
type Principle string

const (
	Findable      Principle = "findable"
	Accessible    Principle = "accessible"
	Interoperable Principle = "interoperable"
	Reusable      Principle = "reusable"
)

// Principles lists the principles in report order
var Principles = []Principle{Findable, Accessible, Interoperable, Reusable}

// Allocation is the share of the 100-point total each principle carries
func (p Principle) Allocation() float64 {
	switch p {
	case Findable:
		return 25
	case Accessible:
		return 20
	case Interoperable:
		return 30
	case Reusable:
		return 25
	}
	return 0
}

// MetricDefinition describes one rubric item
type MetricDefinition struct {
	Name        string
	Description string
	Points      float64
	Check       CheckType
	Required    []string
}

var findableMetrics = []MetricDefinition{
	{
		Name:        "unique_identifier",
		Description: "Dataset has a unique, persistent identifier (DOI, UUID, etc.)",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"id", "uuid", "doi", "identifier"},
	},
	{
		Name:        "rich_metadata",
		Description: "Rich descriptive metadata about the data",
		Points:      10,
		Check:       CheckAll,
		Required:    []string{"title", "summary", "keywords", "creator_name", "institution", "project"},
	},
	{
		Name:        "searchable_metadata",
		Description: "Metadata includes searchable attributes",
		Points:      5,
		Check:       CheckMost,
		Required: []string{
			"geospatial_lat_min", "geospatial_lat_max",
			"geospatial_lon_min", "geospatial_lon_max",
			"time_coverage_start", "time_coverage_end",
		},
	},
	{
		Name:        "metadata_standard",
		Description: "Follows recognized metadata standards (ACDD, CF)",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"Conventions", "Metadata_Conventions"},
	},
}

var accessibleMetrics = []MetricDefinition{
	{
		Name:        "access_protocol",
		Description: "Uses standard, open access protocol (HTTP, OPeNDAP)",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"sourceUrl", "datasetID"},
	},
	{
		Name:        "contact_info",
		Description: "Clear contact information for data access",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"creator_email", "publisher_email", "contact"},
	},
	{
		Name:        "access_constraints",
		Description: "Explicitly states access constraints or open access",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"license", "accessConstraints"},
	},
	{
		Name:        "authentication_metadata",
		Description: "Metadata accessible even if data requires authentication",
		Points:      5,
		Check:       CheckAny,
		Required:    []string{"metadata_link", "references"},
	},
}

var interoperableMetrics = []MetricDefinition{
	{
		Name:        "cf_compliance",
		Description: "Complies with CF (Climate & Forecast) conventions",
		Points:      15,
		Check:       CheckCustom,
	},
	{
		Name:        "standard_vocabulary",
		Description: "Uses standard vocabularies for variables",
		Points:      5,
		Check:       CheckVariables,
		Required:    []string{"standard_name", "long_name"},
	},
	{
		Name:        "data_format",
		Description: "Uses standard, open data format (NetCDF)",
		Points:      5,
		Check:       CheckCustom,
		Required:    []string{".nc", ".nc4", ".netcdf"},
	},
	{
		Name:        "coordinate_system",
		Description: "Clear coordinate system and projection info",
		Points:      5,
		Check:       CheckCustom,
		Required:    []string{"lat", "lon", "time", "depth"},
	},
}

var reusableMetrics = []MetricDefinition{
	{
		Name:        "clear_license",
		Description: "Clear usage license specified",
		Points:      5,
		Check:       CheckAll,
		Required:    []string{"license"},
	},
	{
		Name:        "data_provenance",
		Description: "Clear data provenance and processing history",
		Points:      8,
		Check:       CheckMost,
		Required:    []string{"source", "processing_level", "history", "creator_institution", "date_created"},
	},
	{
		Name:        "quality_control",
		Description: "Quality control flags and methodology documented",
		Points:      7,
		Check:       CheckCustom,
	},
	{
		Name:        "community_standards",
		Description: "Follows domain-specific community standards",
		Points:      5,
		Check:       CheckMost,
		Required:    []string{"Conventions", "featureType", "cdm_data_type"},
	},
}

// cfCoordinateNames are matched as substrings of variable names by the CF rule
var cfCoordinateNames = []string{"time", "lat", "latitude", "lon", "longitude", "depth", "altitude"}

// Rubric returns a copy of the metric definitions for a principle
func Rubric(p Principle) []MetricDefinition {
	var src []MetricDefinition
	switch p {
	case Findable:
		src = findableMetrics
	case Accessible:
		src = accessibleMetrics
	case Interoperable:
		src = interoperableMetrics
	case Reusable:
		src = reusableMetrics
	}
	out := make([]MetricDefinition, len(src))
	for i, m := range src {
		m.Required = append([]string(nil), m.Required...)
		out[i] = m
	}
	return out
}

// PossiblePoints sums the rubric points of a principle
func PossiblePoints(p Principle) float64 {
	var total float64
	for _, m := range Rubric(p) {
		total += m.Points
	}
	return total
}

func definition(p Principle, name string) MetricDefinition {
	for _, m := range Rubric(p) {
		if m.Name == name {
			return m
		}
	}
	return MetricDefinition{Name: name}
}
