package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

func TestExtractClientIP(t *testing.T) {
	internal := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8", "fd00::/8"}}

	tests := []struct {
		name       string
		config     *pkghttp.IPConfig
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{
			name:       "untrusted peer ignores forwarding headers",
			config:     internal,
			remoteAddr: "203.0.113.10:54321",
			forwarded:  "1.2.3.4, 5.6.7.8",
			realIP:     "192.168.1.1",
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy uses first forwarded address",
			config:     internal,
			remoteAddr: "10.0.0.5:54321",
			forwarded:  "203.0.113.42, 203.0.113.43, 10.0.0.5",
			want:       "203.0.113.42",
		},
		{
			name:       "trusted proxy skips garbage entries",
			config:     internal,
			remoteAddr: "10.0.0.5:54321",
			forwarded:  "unknown, 203.0.113.44",
			want:       "203.0.113.44",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			config:     internal,
			remoteAddr: "10.0.0.5:54321",
			realIP:     "203.0.113.45",
			want:       "203.0.113.45",
		},
		{
			name:       "trusted IPv6 proxy",
			config:     internal,
			remoteAddr: "[fd00::1]:443",
			forwarded:  "2001:db8::7",
			want:       "2001:db8::7",
		},
		{
			name:       "nil config uses peer",
			config:     nil,
			remoteAddr: "198.51.100.4:80",
			forwarded:  "1.1.1.1",
			want:       "198.51.100.4",
		},
		{
			name:       "invalid CIDRs trust nobody",
			config:     &pkghttp.IPConfig{TrustedProxies: []string{"not-a-cidr"}},
			remoteAddr: "10.0.0.5:54321",
			forwarded:  "1.1.1.1",
			want:       "10.0.0.5",
		},
		{
			name:       "localhost claim from untrusted peer",
			config:     internal,
			remoteAddr: "203.0.113.10:54321",
			forwarded:  "127.0.0.1",
			want:       "203.0.113.10",
		},
		{
			name:       "remote addr without port",
			config:     nil,
			remoteAddr: "198.51.100.9",
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}
