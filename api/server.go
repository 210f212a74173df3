package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/api/graphql"
	apimiddleware "github.com/0xmhha/forge-indexer-go/api/middleware"
	"github.com/0xmhha/forge-indexer-go/api/websocket"
	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/storage"
)

// Server represents the API server
type Server struct {
	config   *Config
	logger   *zap.Logger
	store    *storage.Store
	bus      *events.Bus
	status   graphql.StatusSource
	router   *chi.Mux
	server   *http.Server
	wsServer *websocket.Server
}

// NewServer creates a new API server over the entity store. The bus feeds the
// WebSocket stream and is required when the stream is enabled; the status
// source may be nil.
func NewServer(config *Config, logger *zap.Logger, store *storage.Store, bus *events.Bus, status graphql.StatusSource) (*Server, error) {
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config: config,
		logger: logger,
		store:  store,
		bus:    bus,
		status: status,
		router: chi.NewRouter(),
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	// Create HTTP server
	s.server = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s, nil
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware() {
	// Recovery middleware (must be first)
	s.router.Use(apimiddleware.Recovery(s.logger))

	// Request ID middleware
	s.router.Use(middleware.RequestID)

	// Real IP middleware
	s.router.Use(middleware.RealIP)

	// Logger middleware
	s.router.Use(apimiddleware.Logger(s.logger))

	// Custom CORS middleware that adds headers to ALL responses
	if s.config.EnableCORS {
		s.router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				origin := r.Header.Get("Origin")
				if origin == "" {
					origin = "*"
				}

				// Check if origin is allowed
				allowed := false
				for _, allowedOrigin := range s.config.AllowedOrigins {
					if allowedOrigin == "*" || allowedOrigin == origin {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token, Upgrade, Connection")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Max-Age", "300")
				}

				// Handle preflight requests
				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() error {
	// WebSocket endpoint - registered outside the timeout group so a stream
	// session is not bounded by the request timeout
	if s.config.EnableWebSocket {
		if s.bus == nil {
			return fmt.Errorf("websocket stream enabled but no notification bus provided")
		}

		s.wsServer = websocket.NewServer(s.bus, s.logger)
		s.router.Get(s.config.WebSocketPath, s.wsServer.ServeHTTP)
		s.logger.Info("websocket stream enabled", zap.String("path", s.config.WebSocketPath))
	}

	graphqlHandler, err := graphql.NewHandler(s.store, s.status, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create graphql handler: %w", err)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Handle(s.config.GraphQLPath, graphqlHandler)
		if s.config.EnablePlayground {
			r.Get(s.config.PlaygroundPath, graphqlHandler.PlaygroundHandler())
			s.logger.Info("graphql playground enabled", zap.String("path", s.config.PlaygroundPath))
		}

		// Health check endpoint
		r.Get("/health", s.handleHealth)

		// API version endpoint
		r.Get("/version", s.handleVersion)

		// Prometheus metrics endpoint
		r.Handle("/metrics", promhttp.Handler())
	})

	s.logger.Info("graphql api enabled", zap.String("path", s.config.GraphQLPath))
	return nil
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp string              `json:"timestamp"`
	Indexing  *IndexingHealthInfo `json:"indexing,omitempty"`
	Stream    *StreamHealthInfo   `json:"stream,omitempty"`
}

// IndexingHealthInfo summarizes the scan runner state
type IndexingHealthInfo struct {
	Running        bool   `json:"running"`
	StartBlock     uint64 `json:"start_block"`
	ChainHead      uint64 `json:"chain_head"`
	LastScanEnd    string `json:"last_scan_end,omitempty"`
	EventsApplied  int    `json:"events_applied"`
	EventsSkipped  int    `json:"events_skipped"`
	FailedRanges   int    `json:"failed_ranges"`
	ScansCompleted uint64 `json:"scans_completed"`
	LastError      string `json:"last_error,omitempty"`
}

// StreamHealthInfo summarizes the notification bus and stream sessions
type StreamHealthInfo struct {
	Sessions        int    `json:"sessions"`
	Subscribers     int    `json:"subscribers"`
	TotalEvents     uint64 `json:"total_events"`
	TotalDeliveries uint64 `json:"total_deliveries"`
	DroppedEvents   uint64 `json:"dropped_events"`
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	// Add last-scan summary if a runner is wired
	if s.status != nil {
		status := s.status.Status()
		indexing := &IndexingHealthInfo{
			Running:        status.Running,
			StartBlock:     status.StartBlock,
			ChainHead:      status.ChainHead,
			EventsApplied:  status.EventsApplied,
			EventsSkipped:  status.EventsSkipped,
			FailedRanges:   status.FailedRanges,
			ScansCompleted: status.ScansCompleted,
			LastError:      status.LastError,
		}
		if !status.LastScanEnd.IsZero() {
			indexing.LastScanEnd = status.LastScanEnd.UTC().Format(time.RFC3339)
		}
		response.Indexing = indexing
	}

	// Add stream info if the bus is wired
	if s.bus != nil {
		published, delivered, dropped := s.bus.Stats()
		stream := &StreamHealthInfo{
			Subscribers:     s.bus.SubscriberCount(),
			TotalEvents:     published,
			TotalDeliveries: delivered,
			DroppedEvents:   dropped,
		}
		if s.wsServer != nil {
			stream.Sessions = s.wsServer.Hub().ClientCount()
		}
		response.Stream = stream
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleVersion handles the version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"version":"1.0.0","name":"forge-indexer-go"}`)
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		zap.String("address", s.config.Address()),
		zap.Bool("playground", s.config.EnablePlayground),
		zap.Bool("websocket", s.config.EnableWebSocket),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	// Stop WebSocket sessions first
	if s.wsServer != nil {
		s.wsServer.Stop()
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// Shutdown server
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped gracefully")
	return nil
}

// SetStreamMetrics attaches Prometheus metrics to the websocket hub. No-op
// when the stream is disabled.
func (s *Server) SetStreamMetrics(metrics *websocket.Metrics) {
	if s.wsServer != nil {
		s.wsServer.SetMetrics(metrics)
	}
}

// Router returns the underlying chi router (for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
