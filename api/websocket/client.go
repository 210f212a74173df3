package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// maxRequestBytes bounds a single client frame; requests are tiny
const maxRequestBytes = 4096

// Client is one websocket session. A fresh session is subscribed to nothing
// until its first subscribe request.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[events.Topic]bool
}

func newClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, constants.DefaultEventBufferSize),
		logger: logger.With(zap.String("session_id", id)),
		topics: make(map[events.Topic]bool),
	}
}

// subscribed reports whether the session wants the topic
func (c *Client) subscribed(topic events.Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// readPump consumes client requests until the connection dies. It owns read
// deadlines: every pong extends them.
func (c *Client) readPump() {
	defer func() {
		// The hub may already be stopped; never block on the way out
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxRequestBytes)
	c.conn.SetReadDeadline(time.Now().Add(constants.DefaultWSPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.DefaultWSPongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.handleRequest(data)
	}
}

func (c *Client) handleRequest(data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendControl(TypeError, ErrorPayload{Error: "malformed request"})
		return
	}

	topics := make([]events.Topic, 0, len(req.Topics))
	for _, s := range req.Topics {
		topic, ok := parseTopic(s)
		if !ok {
			c.sendControl(TypeError, ErrorPayload{Error: "unknown topic: " + s})
			return
		}
		topics = append(topics, topic)
	}

	switch req.Action {
	case ActionSubscribe:
		c.setTopics(topics, true)
		c.sendControl(TypeSubscribed, Ack{Topics: req.Topics})
	case ActionUnsubscribe:
		c.setTopics(topics, false)
		c.sendControl(TypeUnsubscribed, Ack{Topics: req.Topics})
	default:
		c.sendControl(TypeError, ErrorPayload{Error: "unknown action: " + req.Action})
	}
}

func (c *Client) setTopics(topics []events.Topic, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		if on {
			c.topics[topic] = true
		} else {
			delete(c.topics, topic)
		}
	}
}

// sendControl queues a control frame, dropping it if the session is backed up
func (c *Client) sendControl(frameType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal control frame", zap.Error(err))
		return
	}
	frame, err := json.Marshal(Message{Type: frameType, Payload: data})
	if err != nil {
		c.logger.Error("failed to marshal control frame", zap.Error(err))
		return
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn("control frame dropped, send buffer full")
	}
}

// writePump drains the send queue to the connection and keeps the session
// alive with pings. It exits when the hub closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.DefaultWSPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.DefaultWSWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.DefaultWSWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
