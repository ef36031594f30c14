package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/middleware"
	"github.com/yourusername/edutest-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения студентов
type WSHandler struct {
	hub      *websocket.Hub
	manager  *websocket.Manager
	tokens   middleware.TokenParser
	upgrader gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с настройками CORS.
func NewWSHandler(hub *websocket.Hub, manager *websocket.Manager, tokens middleware.TokenParser, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		hub:     hub,
		manager: manager,
		tokens:  tokens,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Пустой Origin у небраузерных клиентов
				if origin == "" {
					return true
				}
				if _, ok := allowed["*"]; ok {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				log.Warn().Str("origin", origin).Msg("[WSHandler] Отклонен неразрешенный origin")
				return false
			},
		},
	}
}

// HandleConnection проверяет токен из ?token=... и открывает соединение
func (h *WSHandler) HandleConnection(c *gin.Context) {
	// Токен не логируем
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token parameter"})
		return
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		log.Warn().Err(err).Uint("userID", claims.UserID).Msg("[WSHandler] Ошибка upgrade")
		return
	}

	client := websocket.NewClient(h.hub, conn, claims.UserID)
	client.StartPumps(h.manager.HandleMessage)
	log.Info().Uint("userID", claims.UserID).Str("connID", client.ConnectionID).Msg("[WSHandler] Соединение установлено")
}
