package handlers

import (
	"context"
	"errors"
	"net/http"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ClaimAPI interface {
	Status(ctx context.Context, userID int64) (*domain.ClaimStatus, error)
	Claim(ctx context.Context, userID int64) (*service.ClaimResult, error)
}

// ежедневная награда
type ClaimHandler struct {
	svc ClaimAPI
}

func NewClaimHandler(svc ClaimAPI) *ClaimHandler {
	return &ClaimHandler{svc: svc}
}

// GET /api/claims/daily
func (h *ClaimHandler) Status(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	st, err := h.svc.Status(c.Request.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		internalError(c, "claim status failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get claim status"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /api/claims/daily
func (h *ClaimHandler) Claim(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.svc.Claim(c.Request.Context(), userID)
	if err != nil {
		var early *service.ClaimTooEarlyError
		switch {
		case errors.As(err, &early):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":         "daily reward already claimed",
				"next_claim_at": early.NextClaimAt,
				"wait_seconds":  int64(early.Remaining.Seconds()),
			})
		case errors.Is(err, service.ErrNoVIP):
			c.JSON(http.StatusForbidden, gin.H{"error": "vip level required"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			internalError(c, "daily claim failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim reward"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}
