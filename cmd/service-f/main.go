package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tordynnar/service-f/internal/config"
	"github.com/tordynnar/service-f/internal/handler"
	"github.com/tordynnar/service-f/internal/health"
	"github.com/tordynnar/service-f/internal/logging"
	"github.com/tordynnar/service-f/internal/otlp"
	"github.com/tordynnar/service-f/internal/server"
	"github.com/tordynnar/service-f/internal/stats"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		logging.Fatal("invalid configuration", logging.F("error", err.Error()))
	}

	logging.SetResource(map[string]string{
		"service.name":    cfg.ServiceName,
		"service.version": config.Version(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry exporters, one connection per signal.
	spanExp, err := otlp.NewSpanExporter(otlp.Config{
		Endpoint:      cfg.ExporterEndpoint,
		ServiceName:   cfg.ServiceName,
		FlushInterval: cfg.SpanFlushInterval,
		Timeout:       cfg.ExportTimeout,
		BatchCapacity: cfg.BatchCapacity,
		Compression:   cfg.ExportCompression,
	})
	if err != nil {
		logging.Fatal("failed to create span exporter", logging.F("error", err.Error()))
	}
	defer spanExp.Close()

	logExp, err := otlp.NewLogExporter(otlp.Config{
		Endpoint:      cfg.ExporterEndpoint,
		ServiceName:   cfg.ServiceName,
		FlushInterval: cfg.LogFlushInterval,
		Timeout:       cfg.ExportTimeout,
		BatchCapacity: cfg.BatchCapacity,
		Compression:   cfg.ExportCompression,
	})
	if err != nil {
		logging.Fatal("failed to create log exporter", logging.F("error", err.Error()))
	}
	defer logExp.Close()

	metricsExp, err := otlp.NewMetricsExporter(otlp.Config{
		Endpoint:    cfg.ExporterEndpoint,
		ServiceName: cfg.ServiceName,
		Timeout:     cfg.ExportTimeout,
		Compression: cfg.ExportCompression,
	})
	if err != nil {
		logging.Fatal("failed to create metrics exporter", logging.F("error", err.Error()))
	}
	defer metricsExp.Close()
	metricsExp.SetInterval(cfg.MetricsPushInterval)

	// Forward every application log line to the collector.
	logging.SetHook(otlp.NewLogHook(logExp))

	go spanExp.Start(ctx)
	go logExp.Start(ctx)
	go metricsExp.Start(ctx)

	statsCollector := stats.NewCollector()
	go statsCollector.StartPeriodicLogging(ctx, cfg.StatsLogInterval)

	fetcher := handler.NewFetcher(spanExp, metricsExp, statsCollector)
	grpcServer := server.New(cfg.GRPCListenAddr)
	grpcServer.Handle(handler.FetchLegacyDataMethod, fetcher.FetchLegacyData)

	var g errgroup.Group
	g.Go(func() error {
		return grpcServer.Start()
	})

	checker := health.New()
	checker.Register("trace_exporter", spanExp.Ready)
	checker.Register("log_exporter", logExp.Ready)
	checker.Register("metrics_exporter", metricsExp.Ready)

	var statsServer *http.Server
	if cfg.StatsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/live", checker.LiveHandler())
		mux.HandleFunc("/ready", checker.ReadyHandler())
		statsServer = &http.Server{Addr: cfg.StatsAddr, Handler: mux}
		g.Go(func() error {
			logging.Info("stats endpoint started", logging.F("addr", cfg.StatsAddr, "path", "/metrics"))
			if err := statsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	logging.Info("service-f started", logging.F(
		"grpc_addr", cfg.GRPCListenAddr,
		"exporter_endpoint", cfg.ExporterEndpoint,
		"service_name", cfg.ServiceName,
		"stats_addr", cfg.StatsAddr,
		"version", config.Version(),
	))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("shutting down")
	checker.SetDraining()

	// Stop taking new work, then flush what remains.
	grpcServer.Stop()
	if statsServer != nil {
		_ = statsServer.Shutdown(context.Background())
	}

	// Detach the hook before the log exporter goes away.
	logging.SetHook(nil)

	cancel()
	spanExp.Wait()
	logExp.Wait()
	metricsExp.Wait()

	if err := g.Wait(); err != nil {
		logging.Error("server error", logging.F("error", err.Error()))
	}

	logging.Info("shutdown complete")
}
