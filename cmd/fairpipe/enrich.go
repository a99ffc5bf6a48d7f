package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/config"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/enrich"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/pipeline"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/qc"
)

// deps wires the anomaly detector from the detector settings
func (a *app) deps() enrich.Deps {
	d := a.cfg.Detector
	opts := qc.Options{
		Contamination: d.Contamination,
		Trees:         d.Trees,
		SampleSize:    d.SampleSize,
		RandomState:   d.RandomState,
	}
	return enrich.Deps{
		Logger:   a.logger,
		Detector: enrich.ModelDetectorLoader(a.logger, d.ModelPath, opts, d.SkipIfNoModel),
	}
}

func (a *app) applyProfile(path string) error {
	if path == "" {
		return nil
	}
	p, err := config.LoadProfile(path)
	if err != nil {
		return err
	}
	return a.cfg.ApplyProfile(p)
}

func runEnrich(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	out := fs.String("o", "", "Output path (default: <input>_enriched<ext>)")
	names := fs.String("enrichers", "", "Comma-separated enrichers (default: coordinate,variable,metadata)")
	profile := fs.String("profile", "", "YAML pipeline profile")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	if err := a.applyProfile(*profile); err != nil {
		return err
	}

	p, err := pipeline.New(a.logger, a.store, a.deps(), pos[0])
	if err != nil {
		return err
	}
	p.WithOrder(a.cfg.GenericEnrichers).WithOutputDir(a.cfg.OutputDir)
	return a.execute(ctx, p, splitList(*names), *out)
}

func runArgo(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("argo", flag.ExitOnError)
	out := fs.String("o", "", "Output path (default: <input>_enriched<ext>)")
	names := fs.String("enrichers", "", "Comma-separated enrichers (default: geospatial,argo_metadata,anomaly,bgc_names,metadata)")
	profile := fs.String("profile", "", "YAML pipeline profile")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	if err := a.applyProfile(*profile); err != nil {
		return err
	}

	p, err := pipeline.NewArgo(a.logger, a.store, a.deps(), pos[0])
	if err != nil {
		return err
	}
	p.WithOrder(a.cfg.ArgoEnrichers).WithOutputDir(a.cfg.OutputDir)
	return a.execute(ctx, p, splitList(*names), *out)
}

// execute runs the pipeline, prints its report and exports metrics whether
// or not the run succeeded
func (a *app) execute(ctx context.Context, p *pipeline.Pipeline, names []string, out string) error {
	summary, runErr := p.WithMetrics(a.metrics).Execute(ctx, names, out)

	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Print(p.Report())
	fmt.Printf("\nSaved: %s\n", summary.OutputFile)
	return nil
}
