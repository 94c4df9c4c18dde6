package main

import (
	"context"
	"os"
	"time"

	"budgetui/internal/backend"
	"budgetui/internal/cli"
	"budgetui/internal/convention"
	apphttp "budgetui/internal/http"
	applog "budgetui/internal/log"
	"budgetui/internal/metrics"
	"budgetui/internal/middleware/ratelimit"
	"budgetui/internal/ui"
)

func main() {
	os.Exit(run())
}

// run wires the server and returns the process exit code.
func run() int {
	cli.LoadEnvFile()

	// Bootstrap logger until the configured level and format are known.
	logger := cli.SetupLogger("info", applog.FormatText)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := cli.SignalContext()
	defer stop()

	dates, err := convention.New(cfg.MonthConvention)
	if err != nil {
		logger.Error("Invalid month convention",
			applog.FieldConvention, cfg.MonthConvention,
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		return 1
	}

	m := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		return 1
	}
	result, err := backend.NewFactory(logger, m).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize budget API",
			applog.FieldBackend, cfg.APIBackend,
			applog.FieldError, err.Error())
		return 1
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err.Error())
			}
		}()
	}

	rateCfg := ratelimit.DefaultConfig()
	rateCfg.RequestsPerSecond = float64(cfg.RateLimitPerSecond)
	rateCfg.Burst = cfg.RateLimitBurst

	srv := apphttp.NewServer(":"+cfg.Port, result.API,
		apphttp.WithConvention(dates),
		apphttp.WithReportEcho(ui.ReportEcho(cfg.ReportMonthEcho)),
		apphttp.WithLogger(logger),
		apphttp.WithMetrics(m),
		apphttp.WithRateLimit(rateCfg),
	)

	logger.Info("Starting budget UI server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		applog.FieldBackend, cfg.APIBackend,
		applog.FieldConvention, dates.Name())

	if err := cli.Serve(ctx, srv, logger, 30*time.Second); err != nil {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		return 1
	}

	logger.InfoContext(context.Background(), "Server stopped gracefully")
	return 0
}
