package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/stratafsm/strata"
	httpadapter "github.com/stratafsm/strata/pkg/adapters/http"
	"github.com/stratafsm/strata/pkg/chart"
	"github.com/stratafsm/strata/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve <chart.yaml>",
	Short: "Serve a chart over HTTP",
	Long:  `Builds the machine from the chart and exposes it as a JSON API, with Prometheus metrics on /metrics.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, path string) error {
	logger := newLogger(cmd)
	port, _ := cmd.Flags().GetString("port")

	c, err := chart.Load(path)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	machine, err := c.Machine(
		strata.WithLogger(logger),
		strata.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	if err := machine.Start(cmd.Context(), c.InitialValue()); err != nil {
		return err
	}
	defer func() { _ = machine.Stop() }()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/", httpadapter.NewHandler(machine))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "chart", path)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}
