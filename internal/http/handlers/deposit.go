package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type DepositAPI interface {
	VerifySignature(body []byte, signature string) bool
	ProcessPayment(ctx context.Context, n service.PaymentNotification) (bool, error)
}

// вебхук платежного шлюза
type DepositHandler struct {
	svc DepositAPI
}

func NewDepositHandler(svc DepositAPI) *DepositHandler {
	return &DepositHandler{svc: svc}
}

const maxWebhookBody = 64 << 10

// POST /api/webhooks/payments, подпись HMAC-SHA512 тела в X-Signature
func (h *DepositHandler) PaymentWebhook(c *gin.Context) {
	// подпись считается по сырому телу, поэтому без BindJSON
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if !h.svc.VerifySignature(body, c.GetHeader("X-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var n service.PaymentNotification
	if err := json.Unmarshal(body, &n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	credited, err := h.svc.ProcessPayment(c.Request.Context(), n)
	switch {
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		// 500, шлюз повторит доставку
		internalError(c, "payment webhook failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "credited": credited})
	}
}
