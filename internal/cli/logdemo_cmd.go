package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/V4T54L/grabbag/internal/adapter/api"
	"github.com/V4T54L/grabbag/internal/logging"
	"github.com/V4T54L/grabbag/internal/pkg/config"
)

type logdemoOptions struct {
	name     string
	fileMode string
	filePath string
	message  string
	repeat   int
	rps      float64
	serve    bool
	addr     string
}

func newLogdemoCmd() *cobra.Command {
	var opts logdemoOptions

	cmd := &cobra.Command{
		Use:   "logdemo",
		Short: "Emit one record per severity through a logger built from the environment",
		Long: `Builds a logger from the environment (see LOG_FILE_MODE, CRITICAL_EMAIL_TO,
REDIS_URL, POSTGRES_URL) and emits a DEBUG, INFO, WARNING, ERROR and CRITICAL
record. With --serve the Prometheus sink counters stay available on
--addr until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("name") {
				cfg.LoggerName = opts.name
			}
			if cmd.Flags().Changed("file-mode") {
				cfg.FileMode = opts.fileMode
			}
			if cmd.Flags().Changed("file-path") {
				cfg.FilePath = opts.filePath
			}
			if !cmd.Flags().Changed("addr") {
				opts.addr = cfg.MetricsAddr
			}
			return runLogdemo(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Logger name (overrides LOGGER_NAME)")
	cmd.Flags().StringVar(&opts.fileMode, "file-mode", "", "File sink mode: log, json or none (overrides LOG_FILE_MODE)")
	cmd.Flags().StringVar(&opts.filePath, "file-path", "", "File sink path without extension (overrides LOG_FILE_PATH)")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "demo event", "Message text for each record")
	cmd.Flags().IntVarP(&opts.repeat, "repeat", "n", 1, "Number of rounds to emit")
	cmd.Flags().Float64Var(&opts.rps, "rps", 0, "Maximum rounds per second (0 is unlimited)")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "Serve /metrics and /health until SIGINT or SIGTERM")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Metrics listen address (overrides METRICS_ADDR)")
	return cmd
}

func runLogdemo(cmd *cobra.Command, cfg *config.Config, opts logdemoOptions) error {
	if opts.repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", opts.repeat)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	lg, cleanup, err := buildLogger(ctx, cfg, loggerOptions{
		console:  cmd.ErrOrStderr(),
		errOut:   cmd.ErrOrStderr(),
		registry: reg,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	limit := rate.Inf
	if opts.rps > 0 {
		limit = rate.Limit(opts.rps)
	}
	limiter := rate.NewLimiter(limit, 1)

	start := time.Now()
	for i := 0; i < opts.repeat; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		emitRound(ctx, lg, opts.message, i)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logger %s ran %d round(s) of 5 severities through %s in %s\n",
		lg.Name(), opts.repeat, strings.Join(lg.SinkNames(), ","), time.Since(start).Round(time.Millisecond))

	if !opts.serve {
		return nil
	}
	return serveMetrics(ctx, opts.addr, reg, lg)
}

func emitRound(ctx context.Context, lg *logging.Logger, msg string, round int) {
	lg.DebugContext(ctx, msg, "round", round)
	lg.InfoContext(ctx, msg, "round", round)
	lg.WarnContext(ctx, msg, "round", round)
	lg.ErrorContext(ctx, msg, "round", round)
	lg.CriticalContext(ctx, msg, "round", round)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, lg *logging.Logger) error {
	logger := lg.With("component", "metrics")
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewMetricsRouter(reg, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
