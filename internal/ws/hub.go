package ws

import (
	"encoding/json"
	"sync"

	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"
)

// Event - сообщение ленты операций
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub раздает события ленты всем открытым соединениям пользователя.
// У одного пользователя может быть несколько вкладок
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	metrics.WSConnections.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
	metrics.WSConnections.Dec()
}

// Publish отправляет событие всем соединениям пользователя, не блокируясь.
// Клиент с переполненным буфером отключается
func (h *Hub) Publish(userID int64, event string, data interface{}) {
	payload, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		logger.Error("ws: не удалось сериализовать событие", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- payload:
		default:
			logger.Warn("ws: клиент не успевает читать, отключаем", "user_id", userID)
			h.removeLocked(c)
		}
	}
}

// ConnectionCount - число открытых соединений пользователя
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
