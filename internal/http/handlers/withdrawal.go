package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/eligibility"
	"vipclub_backend/internal/metrics"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WithdrawalAPI - часть service.WithdrawalService, нужная хендлерам
type WithdrawalAPI interface {
	Preview(ctx context.Context, userID int64, amount decimal.Decimal) (*service.EligibilityPreview, error)
	Create(ctx context.Context, userID int64, req domain.WithdrawRequest) (*domain.Withdrawal, error)
	ListMine(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error)
}

type WithdrawalHandler struct {
	svc WithdrawalAPI
}

func NewWithdrawalHandler(svc WithdrawalAPI) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// ответ создания и обработки заявки, всегда 200
type withdrawalResponse struct {
	Success          bool               `json:"success"`
	Error            string             `json:"error,omitempty"`
	Code             string             `json:"code,omitempty"`
	Message          string             `json:"message,omitempty"`
	RemainingSeconds int64              `json:"remaining_seconds,omitempty"`
	NextAllowedAt    any                `json:"next_allowed_at,omitempty"`
	Withdrawal       *domain.Withdrawal `json:"withdrawal,omitempty"`
}

func failure(code, msg string) withdrawalResponse {
	return withdrawalResponse{Success: false, Error: msg, Code: code}
}

// GET /api/withdrawals/eligibility?amount=
func (h *WithdrawalHandler) Eligibility(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(c.Query("amount")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		amount = d
	}

	preview, err := h.svc.Preview(c.Request.Context(), userID, amount)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		internalError(c, "eligibility preview failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check eligibility"})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// POST /api/withdrawals
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, failure("invalid_request", "invalid request body"))
		return
	}

	w, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		code := service.DenialCode(err)
		if code == "" {
			internalError(c, "create withdrawal failed", err)
			c.JSON(http.StatusOK, failure("internal_error", "failed to create withdrawal, try again later"))
			return
		}
		metrics.WithdrawalsDenied.WithLabelValues(code).Inc()

		resp := failure(code, err.Error())
		var d *eligibility.Denial
		if errors.As(err, &d) {
			resp.RemainingSeconds = d.RemainingSeconds
			if d.NextAllowedAt != nil {
				resp.NextAllowedAt = d.NextAllowedAt
			}
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, withdrawalResponse{
		Success:    true,
		Message:    "withdrawal request created",
		Withdrawal: w,
	})
}

// GET /api/withdrawals
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.svc.ListMine(c.Request.Context(), userID, queryLimit(c, 50, 100))
	if err != nil {
		internalError(c, "list withdrawals failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get withdrawals"})
		return
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
