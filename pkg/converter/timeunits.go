// pkg/converter/timeunits.go
package converter

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ArgoReferenceTime is the epoch of Argo JULD values
var ArgoReferenceTime = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// TimeUnits is a parsed CF "<unit> since <reference>" string
type TimeUnits struct {
	Step      time.Duration
	Reference time.Time
}

// ParseTimeUnits parses CF time units such as "days since 1950-01-01 00:00:00 UTC"
func ParseTimeUnits(units string) (TimeUnits, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return TimeUnits{}, fmt.Errorf("invalid time units %q", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "days", "day", "d":
		step = 24 * time.Hour
	case "hours", "hour", "h":
		step = time.Hour
	case "minutes", "minute", "min":
		step = time.Minute
	case "seconds", "second", "s", "sec":
		step = time.Second
	default:
		return TimeUnits{}, fmt.Errorf("unsupported time step %q", parts[0])
	}

	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(ref, " UTC")
	ref = strings.TrimSpace(ref)
	t, ok := ParseTimestamp(ref)
	if !ok {
		return TimeUnits{}, fmt.Errorf("invalid reference time %q", parts[1])
	}
	return TimeUnits{Step: step, Reference: t}, nil
}

// At converts a numeric offset into an absolute UTC time
func (u TimeUnits) At(value float64) time.Time {
	whole, frac := math.Modf(value)
	d := time.Duration(whole)*u.Step + time.Duration(frac*float64(u.Step))
	return u.Reference.Add(d)
}

// JulianDay converts an Argo JULD value to a UTC time, truncated to whole days
func JulianDay(juld float64) time.Time {
	return ArgoReferenceTime.AddDate(0, 0, int(juld))
}
