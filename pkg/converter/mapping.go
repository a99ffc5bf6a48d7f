// pkg/converter/mapping.go
package converter

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Patterns for Argo file names such as BD5904468_001.nc or R5904471_001.nc
var (
	argoPrefixedWMOPattern = regexp.MustCompile(`[BRS]?D?(\d{7})`)
	bareWMOPattern         = regexp.MustCompile(`(\d{7})`)
)

// Data Assembly Centres recognised in file paths, in match order
var dataAssemblyCentres = []string{
	"aoml", "coriolis", "meds", "incois", "csio", "jma", "kma", "bodc", "csiro",
}

// ExtractWMO returns the 7-digit WMO float number embedded in a file name
func ExtractWMO(path string) (string, bool) {
	name := filepath.Base(path)
	if m := argoPrefixedWMOPattern.FindStringSubmatch(name); len(m) > 1 {
		return m[1], true
	}
	if m := bareWMOPattern.FindStringSubmatch(name); len(m) > 1 {
		return m[1], true
	}
	return "", false
}

// DefaultDAC is reported when no Data Assembly Centre appears in a path
const DefaultDAC = "GDAC"

// GuessDAC returns the upper-cased Data Assembly Centre named in the path,
// or DefaultDAC when none is recognised.
func GuessDAC(path string) string {
	lower := strings.ToLower(path)
	for _, dac := range dataAssemblyCentres {
		if strings.Contains(lower, dac) {
			return strings.ToUpper(dac)
		}
	}
	return DefaultDAC
}

// ISOFormat is the timestamp layout used for every generated time attribute
const ISOFormat = "2006-01-02T15:04:05Z"

// FormatISO renders a time in UTC with a trailing Z
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

// DetectTimeFormat analyzes a value to determine its timestamp format
func DetectTimeFormat(value string) string {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05.999999Z",
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"20060102T150405Z",
		"2006-01-02",
	}

	for _, format := range formats {
		if _, err := time.Parse(format, value); err == nil {
			return format
		}
	}
	return ""
}

// ParseTimestamp parses a timestamp in any format DetectTimeFormat knows
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	format := DetectTimeFormat(value)
	if format == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(format, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
