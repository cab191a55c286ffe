package handlers

import (
	"context"
	"net/http"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralAPI interface {
	Commissions(ctx context.Context, userID int64) (*domain.CommissionSummary, error)
	Info(ctx context.Context, userID int64) (*service.ReferralInfo, error)
}

type ReferralHandler struct {
	svc ReferralAPI
}

func NewReferralHandler(svc ReferralAPI) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// GET /api/referrals - код приглашения и число рефералов
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	info, err := h.svc.Info(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "referral info failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GET /api/referrals/commissions
func (h *ReferralHandler) GetCommissions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.svc.Commissions(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "commission summary failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get commissions"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
