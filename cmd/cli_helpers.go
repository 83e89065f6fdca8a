package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

const maxStdinBytes = 8 << 20

// readAllStdin reads piped input, refusing an interactive terminal.
func readAllStdin() ([]byte, error) {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("stdin is a terminal; pipe the text in")
	}
	return io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes))
}

// gatewayDialAddr is the address a local client should dial for the
// configured listener.
func gatewayDialAddr(cfg *config.Config) string {
	g := cfg.Gateway
	if g.Host == "0.0.0.0" || g.Host == "" || g.Host == "::" {
		g.Host = "127.0.0.1"
	}
	return g.Addr()
}

// isGatewayRunning reports whether something accepts TCP on addr.
func isGatewayRunning(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
