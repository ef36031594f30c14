package websocket

// Типы сообщений, отправляемых сервером
const (
	// SESSION_TICK: оставшееся время сессии прохождения теста
	SESSION_TICK = "session:tick"

	// NOTIFICATION: уведомление для студента (успех, ошибка, информация)
	NOTIFICATION = "notification"

	// SERVER_ERROR: ошибка обработки сообщения клиента
	SERVER_ERROR = "server:error"

	// PONG: ответ на ping клиента
	PONG = "pong"
)

// Типы сообщений, принимаемых от клиента
const (
	// CLIENT_PING: проверка соединения на уровне приложения
	CLIENT_PING = "ping"
)
