package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SettlementAPI - действия админа над заявками
type SettlementAPI interface {
	Approve(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error)
	Reject(ctx context.Context, id, adminID int64, reason string) (*domain.Withdrawal, error)
	Retry(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error)
	MassPayout(ctx context.Context, ids []int64, adminID int64) []service.MassPayoutItem
	List(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	CountByStatus(ctx context.Context) (map[domain.WithdrawalStatus]int, error)
}

type SettingsAPI interface {
	Snapshot(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, adminID int64, values map[string]string) (domain.Settings, error)
}

type ActivityAPI interface {
	Recent(ctx context.Context, action string, limit int) ([]*domain.ActivityLog, error)
}

// админка: обработка выводов, настройки, журнал действий
type AdminHandler struct {
	settlement SettlementAPI
	settings   SettingsAPI
	activity   ActivityAPI
}

func NewAdminHandler(settlement SettlementAPI, settings SettingsAPI, activity ActivityAPI) *AdminHandler {
	return &AdminHandler{settlement: settlement, settings: settings, activity: activity}
}

type settleRequest struct {
	Action        string  `json:"action"`
	WithdrawalID  int64   `json:"withdrawalId"`
	WithdrawalIDs []int64 `json:"withdrawalIds"`
	Reason        string  `json:"reason"`
}

// POST /api/admin/withdrawals/settle, ответ как у создания заявки (всегда 200)
func (h *AdminHandler) Settle(c *gin.Context) {
	adminID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, failure("invalid_request", "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	action := strings.ToLower(strings.TrimSpace(req.Action))

	if action == "mass_payout" {
		if len(req.WithdrawalIDs) == 0 {
			c.JSON(http.StatusOK, failure("invalid_request", "withdrawalIds required"))
			return
		}
		results := h.settlement.MassPayout(ctx, req.WithdrawalIDs, adminID)
		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"success":   succeeded == len(req.WithdrawalIDs),
			"processed": len(results),
			"succeeded": succeeded,
			"failed":    len(results) - succeeded,
			"results":   results,
		})
		return
	}

	if req.WithdrawalID <= 0 {
		c.JSON(http.StatusOK, failure("invalid_request", "withdrawalId required"))
		return
	}

	var (
		w   *domain.Withdrawal
		err error
	)
	switch action {
	case "approve":
		w, err = h.settlement.Approve(ctx, req.WithdrawalID, adminID)
	case "reject":
		w, err = h.settlement.Reject(ctx, req.WithdrawalID, adminID, req.Reason)
	case "retry":
		w, err = h.settlement.Retry(ctx, req.WithdrawalID, adminID)
	default:
		c.JSON(http.StatusOK, failure("invalid_action", "unknown action: "+req.Action))
		return
	}

	if err != nil {
		code := settleErrorCode(err)
		if code == "internal_error" {
			internalError(c, "settle withdrawal failed", err)
		}
		resp := failure(code, err.Error())
		if code == "internal_error" {
			resp.Error = "failed to process withdrawal, try again later"
		}
		// при ошибке выплаты заявка уже в статусе error, отдаем её
		resp.Withdrawal = w
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, withdrawalResponse{
		Success:    true,
		Message:    "withdrawal " + string(w.Status),
		Withdrawal: w,
	})
}

func settleErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrWithdrawalNotFound):
		return "not_found"
	case errors.Is(err, service.ErrInvalidTransition):
		return "invalid_status"
	case errors.Is(err, service.ErrPayoutFailed):
		return "payout_failed"
	}
	return "internal_error"
}

// GET /api/admin/withdrawals?status=
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := domain.WithdrawalStatus(strings.ToLower(c.Query("status")))
	switch status {
	case "", domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing,
		domain.WithdrawalStatusCompleted, domain.WithdrawalStatusRejected, domain.WithdrawalStatusError:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	ctx := c.Request.Context()
	list, err := h.settlement.List(ctx, status, queryLimit(c, 100, 500))
	if err != nil {
		internalError(c, "admin list withdrawals failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get withdrawals"})
		return
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}

	counts, err := h.settlement.CountByStatus(ctx)
	if err != nil {
		counts = map[domain.WithdrawalStatus]int{}
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "counts": counts})
}

// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Snapshot(c.Request.Context())
	if err != nil {
		internalError(c, "load settings failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// PUT /api/admin/settings, тело - пары ключ: строковое значение
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	adminID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil || len(values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	s, err := h.settings.Update(c.Request.Context(), adminID, values)
	if errors.Is(err, service.ErrInvalidSetting) || errors.Is(err, service.ErrUnknownSetting) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, "update settings failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /api/admin/activity?limit=&action=
func (h *AdminHandler) Activity(c *gin.Context) {
	logs, err := h.activity.Recent(c.Request.Context(), c.Query("action"), queryLimit(c, 50, 200))
	if err != nil {
		internalError(c, "load activity failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get activity"})
		return
	}
	if logs == nil {
		logs = []*domain.ActivityLog{}
	}
	c.JSON(http.StatusOK, gin.H{"activity": logs})
}
