package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Envelope is the frame pushed to websocket peers.
type Envelope struct {
	// Event is "change", "snapshot" or "error".
	Event     string          `json:"event"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope marshals payload into an envelope for topic.
func NewEnvelope(event, topic string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Topic: topic, Payload: raw, Timestamp: time.Now().UTC()})
}

type broadcastMsg struct {
	topic string
	data  []byte
}

// Hub maintains the set of active clients per topic and fans out messages to
// them and to in-process subscribers.
type Hub struct {
	// Registered clients organized by topic
	clients map[string]map[*Client]struct{}

	// In-process subscribers organized by topic
	subs map[string]map[chan []byte]struct{}

	broadcast  chan broadcastMsg
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		subs:       make(map[string]map[chan []byte]struct{}),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.topic]; !ok {
		h.clients[client.topic] = make(map[*Client]struct{})
	}
	h.clients[client.topic][client] = struct{}{}

	h.logger.Info().
		Str("topic", client.topic).
		Str("subjectID", client.subjectID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.clients, client.topic)
	}

	h.logger.Info().
		Str("topic", client.topic).
		Str("subjectID", client.subjectID).
		Msg("Client unregistered")
}

func (h *Hub) deliver(msg broadcastMsg) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[msg.topic] {
		if !client.trySend(msg.data) {
			slow = append(slow, client)
		}
	}
	for sub := range h.subs[msg.topic] {
		select {
		case sub <- msg.data:
		default:
			h.logger.Warn().Str("topic", msg.topic).Msg("Skipped slow subscriber")
		}
	}
	h.mu.RUnlock()

	// Clients whose buffer is full are dropped.
	for _, client := range slow {
		h.unregisterClient(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.clients {
		for client := range clients {
			client.closeSend()
		}
		delete(h.clients, topic)
	}
}

// Broadcast queues data for every client and subscriber of topic.
func (h *Hub) Broadcast(topic string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{topic: topic, data: data}:
	case <-h.done:
	}
}

// Subscribe returns a channel receiving every message broadcast to topic and a
// function that ends the subscription. Messages are dropped when the buffer is
// full.
func (h *Hub) Subscribe(topic string, buffer int) (<-chan []byte, func()) {
	ch := make(chan []byte, buffer)

	h.mu.Lock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[chan []byte]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], ch)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			h.mu.Unlock()
		})
	}
}

// ClientCount returns the number of connected clients for a topic
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
