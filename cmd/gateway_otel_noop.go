//go:build !otel

package cmd

import (
	"context"
	"log/slog"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
)

// initOTelExporter only warns in builds without -tags otel; spans are still
// summarised in the log by the collector.
func initOTelExporter(_ context.Context, cfg *config.Config, _ *tracing.Collector) {
	if cfg.Telemetry.Enabled {
		slog.Warn("telemetry.enabled is set but this binary was built without -tags otel")
	}
}
