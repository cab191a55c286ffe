package handlers

import (
	"strconv"

	"vipclub_backend/internal/http/middleware"
	"vipclub_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// достает user_id, выставленный middleware.Auth
func getUserID(c *gin.Context) (int64, bool) {
	return middleware.UserID(c)
}

// limit из query, в пределах [1, max]
func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// internalError пишет причину в лог запроса, наружу уходит только общий текст
func internalError(c *gin.Context, msg string, err error) {
	logger.WithContext(c.Request.Context()).Error(msg, "path", c.FullPath(), "error", err)
}
