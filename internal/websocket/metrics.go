package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edutest_ws_active_connections",
		Help: "Количество активных WebSocket соединений",
	})

	totalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutest_ws_connections_total",
		Help: "Общее количество WebSocket подключений",
	})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edutest_ws_messages_sent_total",
		Help: "Отправленные сообщения по типам",
	}, []string{"type"})

	messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutest_ws_messages_dropped_total",
		Help: "Сообщения, отброшенные из-за переполненного буфера клиента",
	})
)
