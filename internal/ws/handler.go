package ws

import (
	"net/http"

	"vipclub_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenValidator проверяет JWT из query (браузер не умеет слать заголовки в ws)
type TokenValidator interface {
	ValidateToken(token string) (int64, bool, error)
}

// содержит зависимости для обработки WebSocket
type WSHandler struct {
	Hub            *Hub
	tokens         TokenValidator
	allowedOrigins []string
}

func NewWSHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string) *WSHandler {
	return &WSHandler{Hub: hub, tokens: tokens, allowedOrigins: allowedOrigins}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "токен обязателен"})
			return
		}

		userID, _, err := h.tokens.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный токен"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ошибка обновления ws", "user_id", userID, "error", err)
			return
		}

		client := NewClient(userID, conn, h.Hub)
		go client.Run()
	}
}
