package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"atelier/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per account
	maxConnsPerAccount = 8
	// Max total connections
	maxTotalConns = 10000
)

var (
	errServerFull  = errors.New("server connection limit reached")
	errAccountFull = errors.New("account connection limit reached")
)

// Hub maps account ids to their open notification sockets.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register a connection for an account. Returns an error when limits are
// exceeded.
func (h *Hub) Register(accountID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errServerFull
	}
	m, ok := h.conns[accountID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[accountID] = m
	}
	if len(m) >= maxConnsPerAccount {
		return nil, errAccountFull
	}

	client := newClient(h, conn, accountID)
	m[client] = struct{}{}
	h.totalConns++
	observability.NotificationConnections.Inc()
	return client, nil
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.AccountID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.NotificationConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.AccountID)
	}
}

// Connections returns how many sockets an account has open.
func (h *Hub) Connections(accountID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[accountID])
}

// Deliver sends message to every socket of accountID and returns how many
// accepted it.
func (h *Hub) Deliver(accountID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[accountID] {
		if c.TrySend(message) {
			delivered++
		}
	}
	if delivered > 0 {
		observability.NotificationsDelivered.WithLabelValues(eventType(message)).Add(float64(delivered))
	}
	return delivered
}

func eventType(message []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil || envelope.Type == "" {
		return "unknown"
	}
	return envelope.Type
}

// StartWiring subscribes to the account channels and forwards every event to
// the matching sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		accountID, ok := ParseAccountChannel(channel)
		if !ok {
			slog.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Deliver(accountID, []byte(payload))
	})
}

// Shutdown closes every client's send channel; each WritePump then sends a
// close frame and releases its socket.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
		}
	}
	observability.NotificationConnections.Sub(float64(h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
