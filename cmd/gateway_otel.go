//go:build otel

package cmd

import (
	"context"
	"log/slog"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing/otelexport"
)

// initOTelExporter attaches an OTLP exporter to the collector when
// telemetry is enabled. Compiled only with -tags otel.
func initOTelExporter(ctx context.Context, cfg *config.Config, collector *tracing.Collector) {
	tc := cfg.Telemetry
	if collector == nil || !tc.Enabled {
		return
	}
	if tc.Endpoint == "" {
		slog.Warn("telemetry enabled without an endpoint; set telemetry.endpoint or EXPLAINER_OTEL_ENDPOINT")
		return
	}

	exp, err := otelexport.New(ctx, otelexport.Config{
		Endpoint:    tc.Endpoint,
		Protocol:    tc.Protocol,
		Insecure:    tc.Insecure,
		ServiceName: tc.ServiceName,
		Headers:     tc.Headers,
	})
	if err != nil {
		slog.Warn("otel exporter unavailable", "endpoint", tc.Endpoint, "error", err)
		return
	}
	collector.SetExporter(exp)
	slog.Info("otel export enabled", "endpoint", tc.Endpoint, "protocol", tc.Protocol, "service", tc.ServiceName)
}
