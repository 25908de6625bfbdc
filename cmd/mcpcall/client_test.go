package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/hbeckmann/mcpcall/internal/mcp"
)

func resetFlags(t *testing.T) {
	t.Helper()
	prevURL, prevTransport := rootURL, rootTransport
	prevToken, prevHeaders := bearerTokenEnv, extraHeaders
	t.Cleanup(func() {
		rootURL, rootTransport = prevURL, prevTransport
		bearerTokenEnv, extraHeaders = prevToken, prevHeaders
	})
	rootURL, rootTransport = "", ""
	bearerTokenEnv, extraHeaders = "", nil
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"X-Api-Key=secret", "Accept=application/json"})
	if err != nil {
		t.Fatalf("parseHeaders failed: %v", err)
	}
	if headers["X-Api-Key"] != "secret" {
		t.Errorf("X-Api-Key = %q", headers["X-Api-Key"])
	}
	if headers["Accept"] != "application/json" {
		t.Errorf("Accept = %q", headers["Accept"])
	}

	// Values may themselves contain '='; only the first one splits.
	headers, err = parseHeaders([]string{"Authorization=Basic dXNlcj1wdw=="})
	if err != nil {
		t.Fatalf("parseHeaders failed: %v", err)
	}
	if headers["Authorization"] != "Basic dXNlcj1wdw==" {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
}

func TestParseHeaders_Invalid(t *testing.T) {
	for _, pair := range []string{"no-equals-sign", "=value-without-key", "  =x"} {
		if _, err := parseHeaders([]string{pair}); err == nil {
			t.Errorf("parseHeaders(%q): expected error", pair)
		}
	}
}

func TestParseHeaders_Empty(t *testing.T) {
	headers, err := parseHeaders(nil)
	if err != nil {
		t.Fatalf("parseHeaders failed: %v", err)
	}
	if headers != nil {
		t.Errorf("expected nil map for no pairs, got %v", headers)
	}
}

func TestBuildClientConfig_Defaults(t *testing.T) {
	resetFlags(t)

	cfg, err := buildClientConfig(zerolog.Nop(), false)
	if err != nil {
		t.Fatalf("buildClientConfig failed: %v", err)
	}
	if cfg.Kind != mcp.TransportStreamable {
		t.Errorf("expected streamable default, got %v", cfg.Kind)
	}
	if cfg.URL != defaultHTTPURL {
		t.Errorf("expected default HTTP URL, got %q", cfg.URL)
	}
}

func TestBuildClientConfig_SSEDefaultURL(t *testing.T) {
	resetFlags(t)
	rootTransport = "sse"

	cfg, err := buildClientConfig(zerolog.Nop(), false)
	if err != nil {
		t.Fatalf("buildClientConfig failed: %v", err)
	}
	if cfg.Kind != mcp.TransportSSE {
		t.Errorf("expected SSE kind, got %v", cfg.Kind)
	}
	if cfg.URL != defaultSSEURL {
		t.Errorf("expected default SSE URL, got %q", cfg.URL)
	}
}

func TestBuildClientConfig_ExplicitURLWins(t *testing.T) {
	resetFlags(t)
	rootTransport = "http"
	rootURL = "http://example.com:9000/custom"

	cfg, err := buildClientConfig(zerolog.Nop(), false)
	if err != nil {
		t.Fatalf("buildClientConfig failed: %v", err)
	}
	if cfg.URL != "http://example.com:9000/custom" {
		t.Errorf("explicit URL not honored: %q", cfg.URL)
	}
}

func TestBuildClientConfig_UnknownTransport(t *testing.T) {
	resetFlags(t)
	rootTransport = "ws"

	if _, err := buildClientConfig(zerolog.Nop(), false); err == nil {
		t.Error("expected error for unknown transport")
	}
}

func TestBuildClientConfig_BearerTokenFromEnv(t *testing.T) {
	resetFlags(t)
	rootTransport = "http"
	bearerTokenEnv = "TEST_MCP_TOKEN"
	t.Setenv("TEST_MCP_TOKEN", "sekrit")

	cfg, err := buildClientConfig(zerolog.Nop(), false)
	if err != nil {
		t.Fatalf("buildClientConfig failed: %v", err)
	}
	if cfg.BearerToken != "sekrit" {
		t.Errorf("bearer token not resolved: %q", cfg.BearerToken)
	}
}

func TestBuildClientConfig_MissingBearerTokenEnv(t *testing.T) {
	resetFlags(t)
	rootTransport = "http"
	bearerTokenEnv = "TEST_MCP_TOKEN_UNSET"

	if _, err := buildClientConfig(zerolog.Nop(), false); err == nil {
		t.Error("expected error for unset bearer token env var")
	}
}
