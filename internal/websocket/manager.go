package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EventHandler обрабатывает данные события. Ошибка закрывает соединение.
type EventHandler func(data json.RawMessage, client *Client) error

// incomingEvent: входящее сообщение клиента
type incomingEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Manager маршрутизирует входящие WebSocket сообщения по типам
type Manager struct {
	hub      *Hub
	handlers map[string]EventHandler
}

// NewManager создает новый менеджер WebSocket с обработчиком ping
func NewManager(hub *Hub) *Manager {
	m := &Manager{
		hub:      hub,
		handlers: make(map[string]EventHandler),
	}
	m.RegisterHandler(CLIENT_PING, func(_ json.RawMessage, client *Client) error {
		return m.hub.SendJSONToUser(client.UserID, Event{Type: PONG, Data: nil})
	})
	return m
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler EventHandler) {
	m.handlers[eventType] = handler
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event incomingEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Warn().Err(err).Uint("userID", client.UserID).Msg("[WSManager] Некорректный JSON")
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.handlers[event.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}
	return handler(event.Data, client)
}

// SendErrorToClient отправляет сообщение об ошибке клиенту, не закрывая соединение
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	errorEvent := Event{
		Type: SERVER_ERROR,
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := m.hub.SendJSONToUser(client.UserID, errorEvent); err != nil {
		log.Error().Err(err).Uint("userID", client.UserID).Msg("[WSManager] Не удалось отправить ошибку клиенту")
	}
}
