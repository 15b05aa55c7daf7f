package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/api"
	"github.com/shaharia-lab/courier/internal/build"
	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd returns the "serve" subcommand that runs the HTTP API and the scheduler.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification API and scheduler",
		Long: `Start the HTTP server that accepts notifications on POST /api/notifications
and delivers them in the background. Metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "courier.log")
			printBanner(build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "An error occurred. Please check the logs at: %s\n", logFile)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	apiSrv := api.New(a.service, a.logger)
	srv := server.New(apiSrv, server.Options{
		Port:    cfg.Port,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	a.logger.Info("server ready", "port", cfg.Port)
	if err := srv.Run(ctx); err != nil {
		a.logger.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}

// printBanner writes the startup banner to stdout. Structured logs go to the
// log file instead.
func printBanner(version, serverURL, logFile string) {
	fmt.Printf("Courier %s running.\n", version)
	fmt.Printf("API: %s/api\n", serverURL)
	fmt.Printf("Logs: %s\n\n", logFile)
}
