package handlers

import (
	"context"
	"errors"
	"net/http"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type VIPAPI interface {
	Levels() []service.VIPLevelInfo
	Upgrade(ctx context.Context, userID int64, level int) (*domain.Profile, error)
}

// покупка VIP уровней
type UpgradeHandler struct {
	svc VIPAPI
}

func NewUpgradeHandler(svc VIPAPI) *UpgradeHandler {
	return &UpgradeHandler{svc: svc}
}

// GET /api/vip/levels
func (h *UpgradeHandler) GetLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"levels":    h.svc.Levels(),
		"max_level": domain.MaxVIPLevel,
	})
}

// POST /api/vip/upgrade
func (h *UpgradeHandler) Upgrade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Level int `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	profile, err := h.svc.Upgrade(c.Request.Context(), userID, req.Level)
	switch {
	case errors.Is(err, service.ErrInvalidLevel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case err != nil:
		internalError(c, "vip upgrade failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"vip_level":    profile.VIPLevel,
			"balance":      profile.Balance,
			"total_earned": profile.TotalEarned,
		})
	}
}
