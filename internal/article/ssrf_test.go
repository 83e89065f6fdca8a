package article

import (
	"context"
	"testing"
)

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"172.20.0.1", true},
		{"192.168.1.10", true},
		{"100.100.1.1", true},
		{"::1", true},
		{"fd00::1", true},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := isPrivateIP(tt.ip); got != tt.want {
			t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestCheckSSRFBlocksLiteralHosts(t *testing.T) {
	ctx := context.Background()
	for _, u := range []string{
		"http://localhost/page",
		"http://127.0.0.1:8080/",
		"http://printer.local/",
		"http://metadata.google.internal/computeMetadata",
		"http://[::1]/",
		"http:///nohost",
	} {
		if err := checkSSRF(ctx, u); err == nil {
			t.Errorf("checkSSRF(%q): expected error", u)
		}
	}
	if err := checkSSRF(ctx, "https://93.184.216.34/"); err != nil {
		t.Errorf("public IP should pass: %v", err)
	}
}
