// ABOUTME: Tests for gateway wiring: config to working /mcp and /health endpoints.

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-sh/inkwell/internal/config"
)

func setupTestGateway(t *testing.T, mutate func(*config.Config)) *Gateway {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}

	g, err := New(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		g.mcpServer.Shutdown()
		g.store.Close()
	})
	return g
}

func TestGateway_Health(t *testing.T) {
	g := setupTestGateway(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.Sessions)
}

func TestGateway_MCPMounted(t *testing.T) {
	g := setupTestGateway(t, nil)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Mcp-Session-Id"))
	assert.Contains(t, rr.Body.String(), "2024-11-05")
	assert.Equal(t, 1, g.mcpServer.SessionCount())
}

func TestGateway_AuthWiring(t *testing.T) {
	g := setupTestGateway(t, func(cfg *config.Config) {
		cfg.Auth.JWTSecret = "wiring-secret"
	})

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)

	// Without a bearer token the handshake must be refused.
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "authentication required")
	assert.Empty(t, rr.Header().Get("Mcp-Session-Id"))
}

func TestGateway_EnvDBPathOverride(t *testing.T) {
	t.Setenv("INKWELL_DB_PATH", ":memory:")

	cfg := config.Default()
	cfg.Database.Path = "/nonexistent-dir-should-not-be-used/notes.db"
	cfg.Server.HTTPAddr = "127.0.0.1:0"

	g, err := New(cfg, slog.Default())
	require.NoError(t, err)
	g.mcpServer.Shutdown()
	g.store.Close()
}
