package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep the résumé fresh in the foreground",
	Long: `Starts the scheduler and updates the résumé every scheduler.interval
until interrupted. The first update runs immediately unless a previous
run already scheduled the next one. When metrics.addr is set, Prometheus
metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(true)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var metricsServer *http.Server
	if settings.Metrics.Addr != "" {
		metricsServer = startMetricsServer(settings.Metrics.Addr, a.metrics.Handler())
		defer shutdownServer(metricsServer)
	}

	cmd.Printf("Refreshing résumé %s every %s. Press Ctrl+C to stop.\n",
		settings.Resume.ID, settings.Scheduler.Interval)

	err = a.scheduler.Start(ctx)
	if stopErr := a.scheduler.Stop(); stopErr != nil {
		logger.Warn("scheduler: stop: %v", stopErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	// A disabled scheduler returns at once; keep serving metrics.
	if !settings.Scheduler.Enabled && metricsServer != nil {
		<-ctx.Done()
	}

	cmd.Println("Stopped.")
	return nil
}

func startMetricsServer(addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics: listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics: %v", err)
		}
	}()
	return server
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("metrics: shutdown: %v", err)
	}
}
