package handlers

import (
	"context"
	"errors"
	"net/http"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthAPI interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.Profile, string, error)
	Login(ctx context.Context, email, password string) (*domain.Profile, string, error)
	Profile(ctx context.Context, userID int64) (*domain.Profile, error)
	LinkTelegram(ctx context.Context, userID int64, initData string) (int64, error)
}

type HistoryAPI interface {
	GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
}

// регистрация, вход, профиль и история операций
type ProfileHandler struct {
	auth    AuthAPI
	history HistoryAPI
}

func NewProfileHandler(auth AuthAPI, history HistoryAPI) *ProfileHandler {
	return &ProfileHandler{auth: auth, history: history}
}

// POST /api/auth/register
func (h *ProfileHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	p, token, err := h.auth.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		internalError(c, "register failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
	default:
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": p})
	}
}

// POST /api/auth/login
func (h *ProfileHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	p, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case err != nil:
		internalError(c, "login failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
	default:
		c.JSON(http.StatusOK, gin.H{"token": token, "user": p})
	}
}

// GET /api/me
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p, err := h.auth.Profile(c.Request.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		internalError(c, "load profile failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/me/telegram - привязка telegram для уведомлений
func (h *ProfileHandler) LinkTelegram(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		InitData string `json:"initData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	tgID, err := h.auth.LinkTelegram(c.Request.Context(), userID, req.InitData)
	if errors.Is(err, service.ErrInvalidTelegramData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram data"})
		return
	}
	if err != nil {
		internalError(c, "link telegram failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link telegram"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"telegram_id": tgID})
}

// GET /api/transactions?limit=
func (h *ProfileHandler) Transactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	txs, err := h.history.GetTransactionHistory(c.Request.Context(), userID, queryLimit(c, 50, 200))
	if err != nil {
		internalError(c, "transaction history failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transactions"})
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
