package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/model"
)

// Client represents a WebSocket subscriber of one pipeline
type Client struct {
	PipelineID string
	Conn       *websocket.Conn
	Send       chan []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by pipeline ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu  sync.RWMutex
	log *zap.Logger
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	PipelineID string
	Message    []byte
}

// NewHub creates a new Hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		log:        log.Named("ws"),
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.PipelineID] == nil {
				h.clients[client.PipelineID] = make(map[*Client]bool)
			}
			h.clients[client.PipelineID][client] = true
			h.mu.Unlock()
			h.log.Debug("client registered", zap.String("pipeline_id", client.PipelineID))

		case client := <-h.unregister:
			h.remove(client)
			h.log.Debug("client unregistered", zap.String("pipeline_id", client.PipelineID))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.PipelineID] {
				select {
				case client.Send <- msg.Message:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.PipelineID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.PipelineID)
	}
}

// reply sends to one client unless the hub already dropped it
func (h *Hub) reply(client *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client.PipelineID][client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// Subscribers returns the number of clients watching a pipeline
func (h *Hub) Subscribers(pipelineID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[pipelineID])
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a raw message for all pipeline subscribers
func (h *Hub) Broadcast(pipelineID string, data []byte) {
	select {
	case h.broadcast <- &BroadcastMessage{PipelineID: pipelineID, Message: data}:
	default:
		h.log.Warn("broadcast buffer full, dropping event", zap.String("pipeline_id", pipelineID))
	}
}

// BroadcastEvent sends a pipeline event to all pipeline subscribers
func (h *Hub) BroadcastEvent(evt model.PipelineEvent) {
	evt.Type = model.WSMessageTypeEvent
	data, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("failed to marshal event", zap.Error(err))
		return
	}
	h.Broadcast(evt.PipelineID, data)
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, pipelineID string) {
	client := &Client{
		PipelineID: pipelineID,
		Conn:       c,
		Send:       make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket error", zap.Error(err))
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			h.reply(client, data)
		}
	}
}
