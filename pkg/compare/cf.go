// pkg/compare/cf.go
package compare

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
)

// CFSide is one dataset's external compliance-checker result
type CFSide struct {
	Path    string           `json:"path"`
	Score   float64          `json:"score"`
	Summary assess.CFSummary `json:"summary"`
}

// CFComparison compares the compliance-checker percentage of two datasets
type CFComparison struct {
	Dataset1    CFSide  `json:"dataset1"`
	Dataset2    CFSide  `json:"dataset2"`
	Improvement float64 `json:"improvement"`
	IssuesFixed int     `json:"issues_fixed"`
}

// CompareCF runs the checker over both files with the given suite
func (c *Comparator) CompareCF(ctx context.Context, checker assess.CFChecker, first, second, suite string) (CFComparison, error) {
	if checker == nil {
		return CFComparison{}, fmt.Errorf("%w: no checker configured", assess.ErrComplianceCheck)
	}
	c.logger.Info("Comparing CF compliance", zap.String("suite", suite))

	r1, err := checker.Check(ctx, first, suite)
	if err != nil {
		return CFComparison{}, fmt.Errorf("failed to check %s: %w", first, err)
	}
	r2, err := checker.Check(ctx, second, suite)
	if err != nil {
		return CFComparison{}, fmt.Errorf("failed to check %s: %w", second, err)
	}

	s1, s2 := r1.Summary(), r2.Summary()
	out := CFComparison{
		Dataset1:    CFSide{Path: first, Score: s1.Percentage, Summary: s1},
		Dataset2:    CFSide{Path: second, Score: s2.Percentage, Summary: s2},
		Improvement: s2.Percentage - s1.Percentage,
		IssuesFixed: s1.Total - s2.Total,
	}

	c.logger.Info("CF comparison complete",
		zap.Float64("dataset1_score", out.Dataset1.Score),
		zap.Float64("dataset2_score", out.Dataset2.Score),
		zap.Float64("improvement", out.Improvement),
		zap.Int("issues_fixed", out.IssuesFixed))
	return out, nil
}
