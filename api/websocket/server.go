package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  constants.DefaultWSReadBufferSize,
	WriteBufferSize: constants.DefaultWSWriteBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		// The read API is public; origin policy belongs to the deployment
		return true
	},
}

// Server upgrades HTTP requests into hub sessions
type Server struct {
	hub    *Hub
	logger *zap.Logger
}

// NewServer creates a websocket server consuming the given bus
func NewServer(bus *events.Bus, logger *zap.Logger) *Server {
	hub := NewHub(bus, logger)
	go hub.Run()

	return &Server{
		hub:    hub,
		logger: logger,
	}
}

// ServeHTTP handles the upgrade and starts the session pumps
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(s.hub, conn, s.logger)
	s.hub.register <- client

	go client.writePump()
	go client.readPump()

	s.logger.Info("websocket session opened",
		zap.String("session_id", client.id),
		zap.String("remote_addr", r.RemoteAddr))
}

// SetMetrics attaches Prometheus metrics to the hub. Optional.
func (s *Server) SetMetrics(metrics *Metrics) {
	s.hub.SetMetrics(metrics)
}

// Hub exposes the underlying hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Stop closes every session and ends the hub
func (s *Server) Stop() {
	s.hub.Stop()
}
