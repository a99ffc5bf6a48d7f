// pkg/assess/cfcheck.go
package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrComplianceCheck is returned when the external checker cannot produce results
var ErrComplianceCheck = errors.New("CF compliance check failed")

// CFCheck is one check reported by the compliance checker
type CFCheck struct {
	Name     string    `json:"name"`
	Priority string    `json:"priority"`
	Weight   int       `json:"weight"`
	Value    []float64 `json:"value"`
	Messages []string  `json:"msgs"`
}

// Level returns the check priority, derived from its weight when the
// checker reports none.
func (c CFCheck) Level() string {
	if c.Priority != "" {
		return strings.ToLower(c.Priority)
	}
	switch c.Weight {
	case 3:
		return "high"
	case 2:
		return "medium"
	case 1:
		return "low"
	}
	return ""
}

// Violated reports whether the check scored below its maximum
func (c CFCheck) Violated() bool {
	return len(c.Value) >= 2 && c.Value[0] < c.Value[1]
}

// CFResults is the result of one checker suite
type CFResults struct {
	Suite          string    `json:"-"`
	ScoredPoints   float64   `json:"scored_points"`
	PossiblePoints float64   `json:"possible_points"`
	AllPriorities  []CFCheck `json:"all_priorities"`
}

// CFSummary counts the checks per priority
type CFSummary struct {
	ScoredPoints   float64 `json:"scored_points"`
	PossiblePoints float64 `json:"possible_points"`
	Percentage     float64 `json:"percentage"`
	High           int     `json:"high_priority_issues"`
	Medium         int     `json:"medium_priority_issues"`
	Low            int     `json:"low_priority_issues"`
	Total          int     `json:"total_issues"`
}

// Summary tallies the checks by priority
func (r CFResults) Summary() CFSummary {
	s := CFSummary{ScoredPoints: r.ScoredPoints, PossiblePoints: r.PossiblePoints}
	if r.PossiblePoints > 0 {
		s.Percentage = r.ScoredPoints / r.PossiblePoints * 100
	}
	for _, c := range r.AllPriorities {
		switch c.Level() {
		case "high":
			s.High++
		case "medium":
			s.Medium++
		case "low":
			s.Low++
		}
	}
	s.Total = s.High + s.Medium + s.Low
	return s
}

// Violations returns failed checks of a priority, or of every priority for "all"
func (r CFResults) Violations(priority string) []CFCheck {
	priority = strings.ToLower(priority)
	var out []CFCheck
	for _, c := range r.AllPriorities {
		if !c.Violated() {
			continue
		}
		if priority == "all" || c.Level() == priority {
			out = append(out, c)
		}
	}
	return out
}

// CFRecommendation is one fix suggested by a failed check
type CFRecommendation struct {
	Priority string `json:"priority"`
	Check    string `json:"check"`
	Message  string `json:"message"`
}

// Recommendations lists failed checks, high priority first, up to maxItems
func (r CFResults) Recommendations(maxItems int) []CFRecommendation {
	var out []CFRecommendation
	for _, p := range []string{"high", "medium", "low"} {
		for _, c := range r.Violations(p) {
			name := c.Name
			if name == "" {
				name = "Unknown"
			}
			msg := "See CF conventions documentation"
			if len(c.Messages) > 0 {
				msg = c.Messages[0]
			}
			out = append(out, CFRecommendation{Priority: p, Check: name, Message: msg})
			if len(out) >= maxItems {
				return out
			}
		}
	}
	return out
}

// ParseCFResults decodes the checker's JSON output and selects one suite
func ParseCFResults(raw []byte, suite string) (CFResults, error) {
	var bySuite map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bySuite); err != nil {
		return CFResults{}, fmt.Errorf("%w: invalid output: %w", ErrComplianceCheck, err)
	}
	body, ok := bySuite[suite]
	if !ok {
		return CFResults{}, fmt.Errorf("%w: no results returned for %s", ErrComplianceCheck, suite)
	}
	var res CFResults
	if err := json.Unmarshal(body, &res); err != nil {
		return CFResults{}, fmt.Errorf("%w: invalid %s results: %w", ErrComplianceCheck, suite, err)
	}
	res.Suite = suite
	return res, nil
}

// CFChecker runs a conventions checker suite against a file
type CFChecker interface {
	Check(ctx context.Context, path, suite string) (CFResults, error)
}

// ExecCFChecker runs the IOOS compliance-checker command line tool
type ExecCFChecker struct {
	logger *zap.Logger
	bin    string
}

// NewExecCFChecker creates a checker that invokes bin
func NewExecCFChecker(logger *zap.Logger, bin string) (*ExecCFChecker, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if bin == "" {
		return nil, errors.New("checker binary cannot be empty")
	}
	return &ExecCFChecker{logger: logger.Named("cf-checker"), bin: bin}, nil
}

// Check runs one suite ("cf", "acdd", ...) and parses its JSON output
func (c *ExecCFChecker) Check(ctx context.Context, path, suite string) (CFResults, error) {
	c.logger.Info("Running compliance check",
		zap.String("suite", suite),
		zap.String("dataset", filepath.Base(path)))

	cmd := exec.CommandContext(ctx, c.bin,
		"--test="+suite,
		"--format=json",
		"--output=-",
		"--criteria=normal",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// The checker exits non-zero when the dataset fails checks, so only a
	// missing or empty output is treated as a failure.
	runErr := cmd.Run()
	if stdout.Len() == 0 {
		if runErr == nil {
			runErr = errors.New("empty output")
		}
		c.logger.Error("Compliance check failed",
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(runErr))
		return CFResults{}, fmt.Errorf("%w: %w", ErrComplianceCheck, runErr)
	}

	res, err := ParseCFResults(stdout.Bytes(), suite)
	if err != nil {
		return CFResults{}, err
	}
	s := res.Summary()
	c.logger.Info("Compliance check complete",
		zap.Float64("scored_points", s.ScoredPoints),
		zap.Float64("possible_points", s.PossiblePoints),
		zap.Int("issues", s.Total))
	return res, nil
}
