package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/service/session"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TickData: данные сообщения session:tick
type TickData struct {
	SessionID        string `json:"session_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// Hub хранит соединения пользователей. У пользователя может быть несколько вкладок.
// Hub реализует session.Notifier: отправка никогда не блокирует вызывающего.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
}

var _ session.Notifier = (*Hub)(nil)

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{})}
}

// Register добавляет клиента
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	activeConnections.Inc()
	totalConnections.Inc()
	log.Debug().Uint("userID", c.UserID).Str("connID", c.ConnectionID).Msg("[WSHub] Клиент зарегистрирован")
}

// Unregister удаляет клиента и закрывает его канал отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			activeConnections.Dec()
		}
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	c.CloseSend()
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// SendJSONToUser отправляет событие во все соединения пользователя.
// Возвращает ошибку, если сообщение не удалось сериализовать.
func (h *Hub) SendJSONToUser(userID uint, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	h.sendToUser(userID, event.Type, data)
	return nil
}

func (h *Hub) sendToUser(userID uint, eventType string, data []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(data) {
			delivered++
			messagesSent.WithLabelValues(eventType).Inc()
		} else {
			messagesDropped.Inc()
		}
	}
	return delivered
}

// Notify отправляет уведомление студенту
func (h *Hub) Notify(studentID uint, n session.Notification) {
	if err := h.SendJSONToUser(studentID, Event{Type: NOTIFICATION, Data: n}); err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Msg("[WSHub] Не удалось отправить уведомление")
	}
}

// NotifyTick отправляет студенту оставшееся время сессии
func (h *Hub) NotifyTick(studentID uint, sessionID string, remaining int) {
	_ = h.SendJSONToUser(studentID, Event{
		Type: SESSION_TICK,
		Data: TickData{SessionID: sessionID, RemainingSeconds: remaining},
	})
}

// Close закрывает все соединения
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*Client, 0)
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[uint]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.CloseSend()
		activeConnections.Dec()
	}
}
