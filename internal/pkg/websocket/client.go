package websocket

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBuffer = 256
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// NewUpgrader returns an upgrader accepting the given origins. An empty list
// or "*" accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 || wildcard {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// InboundFunc handles a message received from the peer. Returning an error
// does not close the connection.
type InboundFunc func(ctx context.Context, message []byte) error

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	topic     string
	subjectID string
	inbound   InboundFunc
	logger    zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient wires conn to hub under topic. The client's context ends when the
// connection closes or parent is cancelled.
func NewClient(parent context.Context, hub *Hub, conn *websocket.Conn, topic, subjectID string, inbound InboundFunc, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(parent)
	return &Client{
		hub:       hub,
		conn:      conn,
		topic:     topic,
		subjectID: subjectID,
		inbound:   inbound,
		logger:    logger,
		send:      make(chan []byte, sendBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Serve registers the client and starts its pumps.
func (c *Client) Serve() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.cancel()
		c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Context is the connection lifetime.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send queues data for this client only. It reports false when the client is
// closed or its buffer is full.
func (c *Client) Send(data []byte) bool {
	return c.trySend(data)
}

func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.cancel()
}

// readPump pumps messages from the websocket connection to the inbound handler
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().Str("topic", c.topic).Str("subjectID", c.subjectID).Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Str("topic", c.topic).Str("subjectID", c.subjectID).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Str("topic", c.topic).Str("subjectID", c.subjectID).Msg("WebSocket read error")
			}
			return
		}

		if c.inbound == nil {
			continue
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		if err := c.inbound(c.ctx, message); err != nil {
			c.logger.Warn().Err(err).Str("topic", c.topic).Str("subjectID", c.subjectID).Msg("Rejected inbound message")
			if data, encErr := NewEnvelope("error", c.topic, map[string]string{"message": err.Error()}); encErr == nil {
				c.trySend(data)
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message; peers parse each frame as a JSON document.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
