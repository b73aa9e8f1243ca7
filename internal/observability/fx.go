// Package observability wires tracing, HTTP metrics and request logging.
package observability

import (
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/config"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability/metrics"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability/tracing"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Telemetry.TracingEnabled,
			ServiceName:      cfg.Telemetry.ServiceName,
			ServiceVersion:   cfg.Telemetry.ServiceVersion,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
			ExporterProtocol: cfg.Telemetry.ExporterProtocol,
			SamplingRatio:    cfg.Telemetry.SamplingRatio,
		}
	}),
	fx.Provide(tracing.NewProvider),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(func(cfg metrics.Config) (*metrics.HTTPMetrics, error) {
		return metrics.NewHTTPMetrics(cfg, otel.GetMeterProvider())
	}),
	fx.Provide(func(cfg metrics.Config) *metrics.RefreshMetrics {
		return metrics.RefreshWithConfig(cfg)
	}),
	// The provider registers itself globally; invoke it so construction is
	// not skipped.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
