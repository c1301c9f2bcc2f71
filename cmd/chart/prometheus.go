package chart

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sargraph/internal/report"
)

const promMetricPrefix = "sargraph_"

type promCollectors struct {
	lines    *prometheus.GaugeVec
	rows     *prometheus.GaugeVec
	timeline *prometheus.GaugeVec
}

func newPromCollectors() promCollectors {
	return promCollectors{
		lines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: promMetricPrefix + "chart_line",
				Help: "Statistics of a chart line over the whole log",
			},
			[]string{"input", "chart", "line", "stat"},
		),
		rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: promMetricPrefix + "extract_rows",
				Help: "Rows read from the log, by outcome",
			},
			[]string{"input", "type"},
		),
		timeline: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: promMetricPrefix + "timeline_points",
				Help: "Number of points on the timeline of the log",
			},
			[]string{"input"},
		),
	}
}

// newPrometheusRegistry returns a registry holding the statistics of every chart line of the results.
func newPrometheusRegistry(results []inputResult) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	collectors := newPromCollectors()
	for _, c := range []prometheus.Collector{collectors.lines, collectors.rows, collectors.timeline} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register Prometheus metric: %w", err)
		}
	}
	for _, result := range results {
		collectors.rows.WithLabelValues(result.name, "data").Set(float64(result.stats.DataRows))
		collectors.rows.WithLabelValues(result.name, "malformed").Set(float64(result.stats.MalformedRows))
		for _, c := range result.charts {
			for _, line := range c.Lines {
				s := report.Summarize(line.Values)
				collectors.lines.WithLabelValues(result.name, c.ID, line.Label, "min").Set(s.Min)
				collectors.lines.WithLabelValues(result.name, c.ID, line.Label, "max").Set(s.Max)
				collectors.lines.WithLabelValues(result.name, c.ID, line.Label, "mean").Set(s.Mean)
				collectors.lines.WithLabelValues(result.name, c.ID, line.Label, "last").Set(s.Last)
			}
		}
		collectors.timeline.WithLabelValues(result.name).Set(float64(result.timelineLen))
	}
	return registry, nil
}

// servePrometheus serves the results at /metrics until the context is done or SIGINT/SIGTERM is received.
func servePrometheus(ctx context.Context, listenAddr string, results []inputResult) error {
	registry, err := newPrometheusRegistry(results)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	serverErr := make(chan error, 1)
	slog.Info("Starting Prometheus metrics server", slog.String("address", listenAddr))
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	fmt.Printf("Serving metrics at http://%s/metrics, press Ctrl+c to stop\n", listenAddr)
	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("Prometheus HTTP server ListenAndServe error", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("Stopping Prometheus metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
