package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/assess"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/compare"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
)

func (a *app) assessor() (*assess.Assessor, error) {
	return assess.NewAssessor(a.logger, a.store)
}

func runAssess(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	out := fs.String("o", "", "Write the JSON report here instead of stdout")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	assessor, err := a.assessor()
	if err != nil {
		return err
	}
	score, err := assessor.Assess(ctx, pos[0])
	if err != nil {
		return err
	}

	report, err := assessor.GenerateReport(score, *out)
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(report)
		return nil
	}

	fmt.Printf("FAIR score: %.1f/100 (Grade: %s)\n", score.Total, score.Grade())
	for _, p := range assess.Principles {
		fmt.Printf("  %-14s %5.1f/%.0f\n", p, score.PrincipleScore(p), p.Allocation())
	}
	for _, r := range assess.Recommendations(score) {
		fmt.Printf("[%s] %s: %s\n", strings.ToUpper(r.Priority), r.Category, strings.Join(r.Items, "; "))
	}
	fmt.Printf("Report: %s\n", report)
	return nil
}

func runPlan(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	assessor, err := a.assessor()
	if err != nil {
		return err
	}
	score, err := assessor.Assess(ctx, pos[0])
	if err != nil {
		return err
	}

	tasks := enrich.Plan(score)
	fmt.Printf("Current score: %.1f/100 (Grade: %s)\n\n", score.Total, score.Grade())
	for _, t := range tasks {
		fmt.Printf("[%s] %s (+%.1f)\n    %s\n", strings.ToUpper(t.Priority.String()), t.Name, t.ScoreGain, t.Description)
	}
	fmt.Printf("\nEstimated improvement: +%.1f points\n", enrich.EstimateImprovement(tasks))
	fmt.Printf("Suggested enrichers: %s\n", strings.Join(enrich.PlanEnrichers(tasks), ","))
	return nil
}

func runCFCheck(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cfcheck", flag.ExitOnError)
	suite := fs.String("suite", "cf", "Checker suite (cf, acdd, ...)")
	limit := fs.Int("n", 10, "Maximum recommendations to print")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	checker, err := assess.NewExecCFChecker(a.logger, a.cfg.CFCheckerBin)
	if err != nil {
		return err
	}
	results, err := checker.Check(ctx, pos[0], *suite)
	if err != nil {
		return err
	}

	s := results.Summary()
	fmt.Printf("CF compliance: %.1f%% (%.0f/%.0f)\n", s.Percentage, s.ScoredPoints, s.PossiblePoints)
	fmt.Printf("Issues: %d high, %d medium, %d low\n", s.High, s.Medium, s.Low)
	for _, r := range results.Recommendations(*limit) {
		fmt.Printf("  [%s] %s: %s\n", strings.ToUpper(r.Priority), r.Check, r.Message)
	}
	return nil
}

func runCompare(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	withCF := fs.Bool("cf", false, "Also compare external compliance-checker scores")
	suite := fs.String("suite", "cf", "Checker suite used with -cf")
	pos, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}

	assessor, err := a.assessor()
	if err != nil {
		return err
	}
	c, err := compare.NewComparator(a.logger, assessor)
	if err != nil {
		return err
	}
	cmp, err := c.CompareDatasets(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Print(compare.Render(cmp))

	if *withCF {
		checker, err := assess.NewExecCFChecker(a.logger, a.cfg.CFCheckerBin)
		if err != nil {
			return err
		}
		cf, err := c.CompareCF(ctx, checker, pos[0], pos[1], *suite)
		if err != nil {
			return err
		}
		fmt.Print("\n" + compare.RenderCF(cf))
	}
	return nil
}
