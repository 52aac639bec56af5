package main

import (
	"fmt"

	"go.uber.org/zap"

	"silorecon/internal/config"
	"silorecon/internal/metrics"
	"silorecon/internal/metrics/datadog"
	"silorecon/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it at exit.
func setupMetrics(p config.Pipeline, log *zap.Logger) (func(), error) {
	var b metrics.Backend
	switch p.Metrics.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}, nil
	case "prompush":
		pb, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: p.Metrics.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = db
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", p.Metrics.Backend)
	}

	log.Info("metrics enabled", zap.String("backend", p.Metrics.Backend))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}, nil
}
