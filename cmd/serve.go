package cmd

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

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/gateway"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/gateway/methods"
	httpapi "github.com/shivaam-bhati/Conversational-Article-Explainer/internal/http"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the WebSocket session gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(host, port)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(host string, port int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, a := newApp(ctx)
	defer a.Close()
	if host != "" {
		cfg.Gateway.Host = host
	}
	if port != 0 {
		cfg.Gateway.Port = port
	}

	collector := a.Tracing()
	initOTelExporter(ctx, cfg, collector)
	collector.Start()
	defer collector.Stop()

	gw := gateway.NewServer(a, gateway.Options{
		Token:          cfg.Gateway.Token,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		RateLimitRPM:   cfg.Gateway.RateLimitRPM,
	})
	gateway.ServerVersion = Version
	methods.NewSessionMethods(gw).Register(gw.Router())

	api := httpapi.NewHandler(a, cfg.Gateway.Token, cfg.Gateway.MaxBodyBytes)
	api.SetRateLimiter(gw.RateLimiter().Allow)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	gw.RegisterRoutes(mux)

	cfgPath := resolveConfigPath()
	if w, err := config.NewWatcher(cfgPath); err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "error", err)
	} else {
		w.OnReload(func(next *config.Config) {
			setupLogging(next.Log, os.Stderr)
			a.Reload(next)
			gw.RateLimiter().SetRPM(next.Gateway.RateLimitRPM)
			if next.Gateway.Addr() != cfg.Gateway.Addr() || next.Gateway.Token != cfg.Gateway.Token {
				slog.Warn("gateway address and token changes apply after a restart")
			}
		})
		if err := w.Start(); err != nil {
			slog.Warn("config watcher failed to start", "path", cfgPath, "error", err)
		} else {
			defer w.Stop()
		}
	}

	if stopTS := initTailscale(ctx, cfg, mux); stopTS != nil {
		defer stopTS()
	}

	srv := &http.Server{
		Addr:              cfg.Gateway.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("explainer listening", "addr", srv.Addr, "version", Version, "providers", a.Chain().Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	slog.Info("shutting down", "clients", gw.ClientCount())
	gw.Shutdown()
	timeout := time.Duration(cfg.Gateway.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
}
