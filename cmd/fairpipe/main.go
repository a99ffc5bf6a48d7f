// Command fairpipe assesses oceanographic NetCDF datasets against the FAIR
// rubric and enriches them to raise their score.
//
// Usage:
//
//	fairpipe assess <file> [-o report.json]
//	fairpipe enrich <file> [-o out.nc] [-enrichers a,b] [-profile p.yaml]
//	fairpipe argo <file> [-o out.nc] [-enrichers a,b] [-profile p.yaml]
//	fairpipe compare <original> <enriched> [-cf] [-suite cf]
//	fairpipe cfcheck <file> [-suite cf] [-n 10]
//	fairpipe plan <file>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/config"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/connector"
	"github.com/OiOfMidworld/ooi-fair-pipeline-project/pkg/pipeline"
)

const usage = `fairpipe - FAIR assessment and enrichment for oceanographic NetCDF

Usage:
  fairpipe <command> [flags] <args>

Commands:
  assess     Score a dataset and print or save the JSON report
  enrich     Run the generic enrichment pipeline (coordinate, variable, metadata)
  argo       Run the BGC-Argo enrichment pipeline
  compare    Compare FAIR scores of an original and an enriched dataset
  cfcheck    Run the external IOOS compliance checker
  plan       Print the enrichment tasks suggested by a dataset's score

Environment:
  LOG_LEVEL            debug, info, warn or error (default: info)
  LOG_FORMAT           json or console (default: console)
  FAIR_OUTPUT_DIR      Directory for enriched files (default: next to the input)
  FAIR_ENRICHERS       Generic pipeline order override (comma separated)
  ARGO_ENRICHERS       Argo pipeline order override (comma separated)
  PH_MODEL_PATH        Trained pH anomaly model (default: models/ph_detector.json)
  PH_SKIP_IF_NO_MODEL  Skip anomaly detection when the model is missing (default: true)
  CF_CHECKER_BIN       compliance-checker executable (default: compliance-checker)
  METRICS_FILE         Write Prometheus textfile metrics after enrichment

Run 'fairpipe <command> -h' for command-specific help.
`

// app carries the process-wide collaborators shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *connector.ConnectorFactory
	metrics *pipeline.Metrics
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	return newAppWith(cfg, logger), nil
}

func newAppWith(cfg *config.Config, logger *zap.Logger) *app {
	metrics := pipeline.NewMetrics(logger)
	metrics.Registry().MustRegister(collectors.NewBuildInfoCollector())

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   connector.NewConnectorFactory(logger),
		metrics: metrics,
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var run func(ctx context.Context, a *app, args []string) error
	switch cmd {
	case "assess":
		run = runAssess
	case "enrich":
		run = runEnrich
	case "argo":
		run = runArgo
	case "compare":
		run = runCompare
	case "cfcheck":
		run = runCFCheck
	case "plan":
		run = runPlan
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "fairpipe: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(2)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fairpipe: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, args); err != nil {
		a.logger.Error("Command failed",
			zap.String("command", cmd),
			zap.String("stage", pipeline.CategorizeError(err).String()),
			zap.Error(err))
		fmt.Fprintf(os.Stderr, "fairpipe %s: %v\n", cmd, err)
		stop()
		_ = a.logger.Sync()
		os.Exit(1)
	}
}
