// Package gateway exposes the screening engine over REST and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"twscreener/internal/markethours"
	"twscreener/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Event is a typed message pushed to WebSocket clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	TS   time.Time   `json:"ts"`
}

// Event types pushed over the WebSocket.
const (
	EventScanResult = "scan_result"
	EventPortfolio  = "portfolio"
	EventWatchlist  = "watchlist"
	EventFlowSwitch = "flow_switch"
	EventMarket     = "market_status"
)

// Hub manages WebSocket clients and event fan-out.
type Hub struct {
	log *slog.Logger
	met *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub. met may be nil.
func NewHub(log *slog.Logger, met *metrics.Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		met:     met,
		clients: make(map[*Client]bool),
	}
}

// HandleWS upgrades the connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
	h.log.Info("ws client connected", slog.Int("total", count))

	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters a client and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. Slow clients with a
// full queue drop the message rather than blocking the hub.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, TS: time.Now()})
	if err != nil {
		h.log.Error("event marshal failed", slog.String("type", eventType), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
	h.mu.RUnlock()

	if h.met != nil {
		h.met.WSMessages.Inc()
	}
}

// StartMarketStatusBroadcast pushes the TWSE session state to all
// clients every interval. Blocks until ctx is cancelled.
func (h *Hub) StartMarketStatusBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			open := markethours.IsMarketOpen(now)
			if h.met != nil {
				state := 0.0
				if open {
					state = 1.0
				}
				h.met.MarketState.Set(state)
			}
			h.Broadcast(EventMarket, map[string]interface{}{
				"open":   open,
				"status": markethours.StatusString(now),
			})
		}
	}
}
