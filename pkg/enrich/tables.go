// pkg/enrich/tables.go
package enrich

import "strings"

// nameMapping pairs a variable name with its CF standard name
type nameMapping struct {
	name         string
	standardName string
}

// cfStandardNames is ordered: partial matches take the first hit
var cfStandardNames = []nameMapping{
	{"temperature", "sea_water_temperature"},
	{"temp", "sea_water_temperature"},
	{"sea_water_temperature", "sea_water_temperature"},
	{"seawater_temperature", "sea_water_temperature"},

	{"salinity", "sea_water_practical_salinity"},
	{"sal", "sea_water_practical_salinity"},
	{"sea_water_salinity", "sea_water_practical_salinity"},
	{"sea_water_practical_salinity", "sea_water_practical_salinity"},

	{"pressure", "sea_water_pressure"},
	{"pres", "sea_water_pressure"},
	{"sea_water_pressure", "sea_water_pressure"},

	{"conductivity", "sea_water_electrical_conductivity"},
	{"cond", "sea_water_electrical_conductivity"},
	{"sea_water_electrical_conductivity", "sea_water_electrical_conductivity"},

	{"oxygen", oxygenName},
	{"do", oxygenName},
	{"dissolved_oxygen", oxygenName},

	{"ph", "sea_water_ph_reported_on_total_scale"},
	{"sea_water_ph", "sea_water_ph_reported_on_total_scale"},

	{"time", "time"},
	{"lat", "latitude"},
	{"latitude", "latitude"},
	{"lon", "longitude"},
	{"longitude", "longitude"},
	{"depth", "depth"},
	{"altitude", "altitude"},
}

const oxygenName = "mole_concentration_of_dissolved_molecular_oxygen_in_sea_water"

var defaultUnits = map[string]string{
	"sea_water_temperature":                "degree_C",
	"sea_water_practical_salinity":         "1",
	"sea_water_pressure":                   "dbar",
	"sea_water_electrical_conductivity":    "S m-1",
	oxygenName:                             "umol kg-1",
	"sea_water_ph_reported_on_total_scale": "1",
	"time":                                 "seconds since 1900-01-01T00:00:00Z",
	"latitude":                             "degrees_north",
	"longitude":                            "degrees_east",
	"depth":                                "m",
	"altitude":                             "m",
}

// StandardName resolves a CF standard name for a variable name: an exact
// case-insensitive match first, then the first table entry that contains,
// or is contained in, the name.
func StandardName(variable string) (string, bool) {
	lower := strings.ToLower(variable)
	for _, m := range cfStandardNames {
		if m.name == lower {
			return m.standardName, true
		}
	}
	for _, m := range cfStandardNames {
		if strings.Contains(lower, m.name) || strings.Contains(m.name, lower) {
			return m.standardName, true
		}
	}
	return "", false
}

// Units returns default units for a standard name, falling back to the
// standard name derived from the variable name.
func Units(standardName, variable string) (string, bool) {
	if u, ok := defaultUnits[standardName]; ok {
		return u, true
	}
	if variable == "" {
		return "", false
	}
	if derived, ok := StandardName(variable); ok {
		u, ok := defaultUnits[derived]
		return u, ok
	}
	return "", false
}

// attrDefault is one global attribute default, kept in insertion order
type attrDefault struct {
	key   string
	value string
}

var ooiMetadataDefaults = []attrDefault{
	{"institution", "Ocean Observatories Initiative"},
	{"source", "OOI Coastal Endurance Array"},
	{"project", "Ocean Observatories Initiative"},
	{"publisher_name", "Ocean Observatories Initiative"},
	{"publisher_url", "https://oceanobservatories.org/"},
	{"license", "These data may be used and redistributed for free, but are not intended for legal use, since they may contain inaccuracies."},
	{"Conventions", "CF-1.6, ACDD-1.3"},
	{"Metadata_Conventions", "CF-1.6, ACDD-1.3"},
	{"cdm_data_type", "TimeSeries"},
	{"featureType", "timeSeries"},
	{"standard_name_vocabulary", "CF Standard Name Table v79"},
	{"creator_type", "institution"},
	{"creator_institution", "Ocean Observatories Initiative"},
	{"publisher_type", "institution"},
	{"publisher_institution", "Ocean Observatories Initiative"},
	{"program", "Ocean Observatories Initiative"},
	{"contributor_name", "NSF, OOI Consortium"},
	{"contributor_role", "sponsor, operator"},
	{"acknowledgement", "National Science Foundation"},
}

const (
	argoDOI         = "10.17882/42182"
	argoLicense     = `These data are freely available under the Argo data policy. Please acknowledge use of these data with: "These data were collected and made freely available by the International Argo Program and the national programs that contribute to it. (https://argo.ucsd.edu)"`
	argoAcknowledge = "These data were collected and made freely available by the International Argo Program and the national programs that contribute to it. (https://argo.ucsd.edu, https://www.ocean-ops.org)"
	argoCitation    = "Argo (2000). Argo float data and metadata from Global Data Assembly Centre (Argo GDAC). SEANOE. https://doi.org/10.17882/42182"
	argoReferences  = "https://argo.ucsd.edu, https://www.ocean-ops.org, https://doi.org/10.17882/42182"
)

var argoCreator = []attrDefault{
	{"creator_name", "Argo"},
	{"creator_type", "institution"},
	{"creator_institution", "Argo"},
	{"creator_url", "https://argo.ucsd.edu/"},
	{"creator_email", "info@argo.ucsd.edu"},
}

var argoPublisher = []attrDefault{
	{"publisher_name", "Global Data Assembly Centre (GDAC)"},
	{"publisher_type", "institution"},
	{"publisher_institution", "Argo GDAC"},
	{"publisher_url", "https://www.ocean-ops.org/board/wa/GDAC"},
	{"publisher_email", "info@argo.ucsd.edu"},
}

var argoKeywords = []string{
	"EARTH SCIENCE > OCEANS",
	"Argo",
	"Biogeochemical-Argo",
	"BGC-Argo",
	"profiling float",
	"ocean observations",
	"in situ",
	"pH",
	"dissolved oxygen",
	"nitrate",
	"chlorophyll",
	"ocean acidification",
	"marine carbon dioxide removal",
	"mCDR",
	"ocean alkalinity",
}

// bgcVariable is the CF metadata for one Argo variable name
type bgcVariable struct {
	standardName string
	longName     string
	units        string
}

const backscatterName = "volume_backwards_scattering_coefficient_of_radiative_flux_in_sea_water"

var bgcVariables = map[string]bgcVariable{
	"PRES":                      {"sea_water_pressure", "Sea Pressure", "decibar"},
	"PRES_ADJUSTED":             {"sea_water_pressure", "Sea Pressure (Adjusted)", "decibar"},
	"TEMP":                      {"sea_water_temperature", "Sea Temperature", "degree_Celsius"},
	"TEMP_ADJUSTED":             {"sea_water_temperature", "Sea Temperature (Adjusted)", "degree_Celsius"},
	"PSAL":                      {"sea_water_practical_salinity", "Practical Salinity", "psu"},
	"PSAL_ADJUSTED":             {"sea_water_practical_salinity", "Practical Salinity (Adjusted)", "psu"},
	"PH_IN_SITU_TOTAL":          {"sea_water_ph_reported_on_total_scale", "pH (in situ total scale)", "1"},
	"PH_IN_SITU_TOTAL_ADJUSTED": {"sea_water_ph_reported_on_total_scale", "pH (in situ total scale, Adjusted)", "1"},
	"DOXY":                      {"moles_of_oxygen_per_unit_mass_in_sea_water", "Dissolved Oxygen", "micromole/kg"},
	"DOXY_ADJUSTED":             {"moles_of_oxygen_per_unit_mass_in_sea_water", "Dissolved Oxygen (Adjusted)", "micromole/kg"},
	"NITRATE":                   {"moles_of_nitrate_per_unit_mass_in_sea_water", "Nitrate", "micromole/kg"},
	"NITRATE_ADJUSTED":          {"moles_of_nitrate_per_unit_mass_in_sea_water", "Nitrate (Adjusted)", "micromole/kg"},
	"CHLA":                      {"mass_concentration_of_chlorophyll_a_in_sea_water", "Chlorophyll-A", "mg/m3"},
	"CHLA_ADJUSTED":             {"mass_concentration_of_chlorophyll_a_in_sea_water", "Chlorophyll-A (Adjusted)", "mg/m3"},
	"BBP":                       {backscatterName, "Particle Backscattering Coefficient", "m-1"},
	"BBP532":                    {backscatterName, "Particle Backscattering Coefficient at 532 nm", "m-1"},
	"BBP700":                    {backscatterName, "Particle Backscattering Coefficient at 700 nm", "m-1"},
	"BBP_ADJUSTED":              {backscatterName, "", ""}, // long name generated, no units
	"LATITUDE":                  {"latitude", "Latitude", "degrees_north"},
	"LONGITUDE":                 {"longitude", "Longitude", "degrees_east"},
	"JULD":                      {"time", "Julian Date", "days since 1950-01-01 00:00:00 UTC"},
}

var bgcAxes = map[string]string{
	"LATITUDE":  "Y",
	"LONGITUDE": "X",
	"JULD":      "T",
}

var bgcNameReplacements = []replacement{
	{"Ph", "pH"},
	{"Doxy", "Dissolved Oxygen"},
	{"Chla", "Chlorophyll-A"},
	{"Bbp", "Particle Backscattering"},
	{"Pres", "Pressure"},
	{"Temp", "Temperature"},
	{"Psal", "Practical Salinity"},
	{"Juld", "Julian Date"},
}

var ooiNameReplacements = []replacement{
	{"Ctd", "CTD"},
	{"Qc", "QC"},
	{"Ph", "pH"},
	{"Do", "DO"},
	{"Dcl", "DCL"},
	{"Temp", "Temperature"},
	{"Sal", "Salinity"},
	{"Pres", "Pressure"},
	{"Cond", "Conductivity"},
}
