package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/config"
	"github.com/ortrealty/ort/internal/db"
	"github.com/ortrealty/ort/internal/logging"
	"github.com/ortrealty/ort/internal/valuation"
	"github.com/ortrealty/ort/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server. Settings come from ORT_* environment variables or a .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides ORT_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if flagDB != "" {
		cfg.Server.DBPath = flagDB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Setup(cfg.Server.DevMode)

	database, err := db.Open(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			slog.Warn("closing database", "err", cerr)
		}
	}()

	completer, err := valuation.NewCompleter(cfg.Provider())
	if err != nil {
		return err
	}
	estimator := valuation.New(completer,
		valuation.WithTimeout(cfg.Valuation.Timeout),
		valuation.WithLogger(slog.Default()),
		valuation.WithMetrics(valuation.NewMetrics(prometheus.DefaultRegisterer)),
	)
	slog.Info("valuation configured", "provider", cfg.Valuation.Provider, "external", estimator.External())

	srv, err := web.NewServer(database, cfg, estimator, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
