//go:build tsnet

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

// initTailscale serves handler on the tailnet as well, so the reader UI can
// reach a home server without opening a port. Compiled only with -tags tsnet.
// The returned func stops the listener; nil means nothing was started.
func initTailscale(ctx context.Context, cfg *config.Config, handler http.Handler) func() {
	tc := cfg.Tailscale
	if tc.Hostname == "" {
		return nil
	}

	node := &tsnet.Server{
		Hostname:  tc.Hostname,
		AuthKey:   tc.AuthKey,
		Ephemeral: tc.Ephemeral,
		Dir:       config.ExpandHome(tc.StateDir),
	}

	var (
		ln   net.Listener
		err  error
		addr = ":80"
	)
	if tc.EnableTLS {
		addr = ":443"
		ln, err = node.ListenTLS("tcp", addr)
	} else {
		ln, err = node.Listen("tcp", addr)
	}
	if err != nil {
		slog.Warn("tailscale listener failed", "hostname", tc.Hostname, "error", err)
		node.Close()
		return nil
	}
	slog.Info("tailscale listener started", "hostname", tc.Hostname, "addr", addr, "tls", tc.EnableTLS)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("tailscale http server", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		node.Close()
		slog.Info("tailscale listener stopped")
	}
}
