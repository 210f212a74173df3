package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/fetch"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// fixedStatus is a static StatusSource for tests
type fixedStatus struct {
	status fetch.Status
}

func (f *fixedStatus) Status() fetch.Status { return f.status }

func newTestServer(t *testing.T, config *Config) *Server {
	t.Helper()

	store, err := storage.NewStore(storage.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus(16)
	go bus.Run()
	t.Cleanup(bus.Stop)

	status := &fixedStatus{status: fetch.Status{
		Running:        true,
		StartBlock:     8609824,
		ChainHead:      8610200,
		LastScanEnd:    time.Unix(1700000030, 0).UTC(),
		EventsApplied:  12,
		ScansCompleted: 3,
	}}

	server, err := NewServer(config, zap.NewNop(), store, bus, status)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return server
}

func TestNewServer(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "invalid port",
			config: &Config{
				Host:            "localhost",
				Port:            0,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    10 * time.Second,
				IdleTimeout:     60 * time.Second,
				MaxHeaderBytes:  1 << 20,
				ShutdownTimeout: 30 * time.Second,
				GraphQLPath:     "/graphql",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				store, err := storage.NewStore(storage.DefaultConfig(t.TempDir()))
				if err != nil {
					t.Fatalf("NewStore() error = %v", err)
				}
				defer store.Close()

				if _, err := NewServer(tt.config, zap.NewNop(), store, nil, nil); err == nil {
					t.Error("NewServer() expected error, got nil")
				}
				return
			}

			server := newTestServer(t, tt.config)
			if server == nil {
				t.Error("NewServer() returned nil server")
			}
		})
	}
}

func TestNewServerRequiresBusForWebSocket(t *testing.T) {
	store, err := storage.NewStore(storage.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	config := DefaultConfig()
	config.EnableWebSocket = true

	if _, err := NewServer(config, zap.NewNop(), store, nil, nil); err == nil {
		t.Error("NewServer() expected error when websocket is enabled without a bus")
	}
}

func TestServerHealthEndpoint(t *testing.T) {
	server := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health endpoint returned wrong status code: got %v want %v",
			w.Code, http.StatusOK)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("health endpoint returned wrong content type: got %v want %v",
			contentType, "application/json")
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status ok, got %s", response.Status)
	}
	if response.Indexing == nil {
		t.Fatal("expected indexing summary in health response")
	}
	if !response.Indexing.Running {
		t.Error("expected indexing.running to be true")
	}
	if response.Indexing.ChainHead != 8610200 {
		t.Errorf("expected chain head 8610200, got %d", response.Indexing.ChainHead)
	}
	if response.Stream == nil {
		t.Fatal("expected stream summary in health response")
	}
}

func TestServerVersionEndpoint(t *testing.T) {
	server := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("version endpoint returned wrong status code: got %v want %v",
			w.Code, http.StatusOK)
	}

	if !strings.Contains(w.Body.String(), "forge-indexer-go") {
		t.Errorf("version endpoint body missing module name: %s", w.Body.String())
	}
}

func TestServerGraphQLEndpoint(t *testing.T) {
	server := newTestServer(t, DefaultConfig())

	body := strings.NewReader(`{"query": "{ globalStats { totalTokens } }"}`)
	req := httptest.NewRequest(http.MethodPost, "/graphql", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("graphql endpoint returned wrong status code: got %v want %v",
			w.Code, http.StatusOK)
	}

	// Empty store: globalStats resolves to null, no errors
	if !strings.Contains(w.Body.String(), `"globalStats": null`) {
		t.Errorf("unexpected graphql response: %s", w.Body.String())
	}
}

func TestServerPlaygroundEndpoint(t *testing.T) {
	server := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/playground", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("playground endpoint returned wrong status code: got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "GraphQL Playground") {
		t.Error("playground endpoint did not serve the playground page")
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("metrics endpoint returned wrong status code: got %v", w.Code)
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	config := DefaultConfig()
	config.Port = 8081 // Use different port to avoid conflicts

	server := newTestServer(t, config)

	// Test graceful shutdown without actually starting the server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Host = "" },
			wantErr: true,
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: true,
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.ReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative write timeout",
			mutate:  func(c *Config) { c.WriteTimeout = -1 * time.Second },
			wantErr: true,
		},
		{
			name:    "zero idle timeout",
			mutate:  func(c *Config) { c.IdleTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative shutdown timeout",
			mutate:  func(c *Config) { c.ShutdownTimeout = -1 * time.Second },
			wantErr: true,
		},
		{
			name:    "zero max header bytes",
			mutate:  func(c *Config) { c.MaxHeaderBytes = 0 },
			wantErr: true,
		},
		{
			name:    "empty graphql path",
			mutate:  func(c *Config) { c.GraphQLPath = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerMiddleware(t *testing.T) {
	config := DefaultConfig()
	config.EnableCORS = true
	config.AllowedOrigins = []string{"http://localhost:3000"}

	server := newTestServer(t, config)

	// Test CORS headers
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	// CORS middleware should handle OPTIONS requests
	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS request returned wrong status code: got %v", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected Access-Control-Allow-Origin: %q", got)
	}

	// Disallowed origin gets no CORS headers
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.invalid")
	w = httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for disallowed origin, got %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	config := DefaultConfig()

	// Verify default values
	if config.Host != "localhost" {
		t.Errorf("expected default host to be localhost, got %s", config.Host)
	}

	if config.Port != 8080 {
		t.Errorf("expected default port to be 8080, got %d", config.Port)
	}

	if !config.EnablePlayground {
		t.Error("expected playground to be enabled by default")
	}

	if !config.EnableWebSocket {
		t.Error("expected WebSocket to be enabled by default")
	}

	if config.GraphQLPath != "/graphql" || config.WebSocketPath != "/ws" {
		t.Errorf("unexpected default paths: %s %s", config.GraphQLPath, config.WebSocketPath)
	}

	// Test Address() method
	expectedAddr := "localhost:8080"
	if config.Address() != expectedAddr {
		t.Errorf("expected address %s, got %s", expectedAddr, config.Address())
	}
}
