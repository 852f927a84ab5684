package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sgajbi/reporting-aggregation-service/internal/aggregation"
	"github.com/sgajbi/reporting-aggregation-service/internal/api"
	"github.com/sgajbi/reporting-aggregation-service/internal/config"
	"github.com/sgajbi/reporting-aggregation-service/internal/core"
	"github.com/sgajbi/reporting-aggregation-service/internal/correlation"
	"github.com/sgajbi/reporting-aggregation-service/internal/performance"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
	"github.com/sgajbi/reporting-aggregation-service/internal/report"
	"github.com/sgajbi/reporting-aggregation-service/internal/reporting"
	"github.com/sgajbi/reporting-aggregation-service/internal/risk"
	"github.com/sgajbi/reporting-aggregation-service/internal/upstream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "report",
		Usage: "portfolio reporting and aggregation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{"REPORT_CONFIG_FILE"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:      "quantize",
				Usage:     "quantize a value under the rounding policy",
				ArgsUsage: "<value>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Value: string(precision.Money), Usage: "semantic type"},
				},
				Action: quantize,
			},
			{
				Name:   "policy",
				Usage:  "print the rounding policy",
				Action: policy,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(correlation.NewLogHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	)))

	// Upstream clients
	caller := upstream.NewCaller(cfg.UpstreamTimeout, cfg.UpstreamRetryMax, cfg.UpstreamRetryBaseDelay)
	coreClient := core.NewClient(cfg.CoreBaseURL, caller)
	perfClient := performance.NewClient(cfg.PerformanceBaseURL, caller)
	riskClient := risk.NewClient(cfg.RiskBaseURL, caller)

	// Services
	aggregationSvc := aggregation.NewService(cfg.ServiceName, coreClient, perfClient)
	reportSvc := report.NewService(cfg.ReportDownloadBaseURL)

	var reads api.ReadService
	switch cfg.ReadSource {
	case config.ReadSourcePassthrough:
		reads = reporting.NewPassthroughService(coreClient)
	default:
		reads = reporting.NewService(coreClient, perfClient, riskClient)
	}

	health := &api.Health{}
	srv := api.NewServer(cfg.HTTPPort,
		api.NewHandler(aggregationSvc, reads, reportSvc),
		health,
		api.CapabilitiesConfig{
			SourceService:   cfg.ServiceName,
			ContractVersion: cfg.ContractVersion,
			PolicyVersion:   cfg.PolicyVersion,
		},
	)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort, "read_source", cfg.ReadSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutting down")
	health.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func quantize(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: report quantize --type <type> <value>", 2)
	}
	t, err := precision.ParseSemanticType(c.String("type"))
	if err != nil {
		return err
	}
	d, err := precision.Quantize(c.Args().First(), t)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, precision.JSONNumber(d))
	return err
}

func policy(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "rounding policy %s (ROUND_HALF_EVEN)\n", precision.RoundingPolicyVersion)
	for _, t := range precision.SemanticTypes() {
		out, _ := precision.OutputScale(t)
		in, _ := precision.MaxInputScale(t)
		fmt.Fprintf(c.App.Writer, "%-12s output_scale=%d max_input_scale=%d\n", t, out, in)
	}
	return nil
}
