package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/eligibility"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"

	"github.com/shopspring/decimal"
)

// SettingsSource отдает снимок настроек на один запрос
type SettingsSource interface {
	Snapshot(ctx context.Context) (domain.Settings, error)
}

// прием заявок на вывод
type WithdrawalService struct {
	db          TxBeginner
	profiles    ProfileStore
	withdrawals WithdrawalStore
	ledger      LedgerStore
	settings    SettingsSource
	notifier    Notifier
	feed        Publisher
	now         func() time.Time
	log         *slog.Logger
}

func NewWithdrawalService(db TxBeginner, profiles ProfileStore, withdrawals WithdrawalStore, ledger LedgerStore, settings SettingsSource) *WithdrawalService {
	return &WithdrawalService{
		db:          db,
		profiles:    profiles,
		withdrawals: withdrawals,
		ledger:      ledger,
		settings:    settings,
		notifier:    noopNotifier{},
		feed:        noopPublisher{},
		now:         time.Now,
		log:         logger.With("component", "withdrawals"),
	}
}

func (s *WithdrawalService) SetNotifier(n Notifier) { s.notifier = n }
func (s *WithdrawalService) SetPublisher(p Publisher) { s.feed = p }

// EligibilityPreview - ответ для экрана вывода до отправки формы
type EligibilityPreview struct {
	Allowed        bool                `json:"allowed"`
	Denial         *eligibility.Denial `json:"denial,omitempty"`
	Available      decimal.Decimal     `json:"available"`
	MinAmount      decimal.Decimal     `json:"min_amount"`
	MaxAmount      decimal.Decimal     `json:"max_amount"`
	WindowOpen     bool                `json:"window_open"`
	NextWindowOpen time.Time           `json:"next_window_open"`
	LastWithdrawal *time.Time          `json:"last_withdrawal_at,omitempty"`
}

// Preview прогоняет те же правила, что и Create, без изменений в БД
func (s *WithdrawalService) Preview(ctx context.Context, userID int64, amount decimal.Decimal) (*EligibilityPreview, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}

	outstanding, err := s.withdrawals.HasOutstanding(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check outstanding: %w", err)
	}

	now := s.now()
	denial := eligibility.Evaluate(eligibility.Request{
		Profile:        profile,
		Settings:       settings,
		Now:            now,
		Amount:         amount,
		HasOutstanding: outstanding,
	})

	available := decimal.Min(profile.TotalEarned, profile.Balance)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return &EligibilityPreview{
		Allowed:        denial == nil,
		Denial:         denial,
		Available:      available,
		MinAmount:      domain.MinWithdrawalAmount,
		MaxAmount:      settings.MaxWithdrawal,
		WindowOpen:     eligibility.InWindow(now),
		NextWindowOpen: eligibility.NextWindowOpen(now),
		LastWithdrawal: profile.LastWithdrawalAt,
	}, nil
}

// Create проверяет правила и создает заявку одной транзакцией.
// Отказ по правилам возвращается как *eligibility.Denial
func (s *WithdrawalService) Create(ctx context.Context, userID int64, req domain.WithdrawRequest) (*domain.Withdrawal, error) {
	address := strings.TrimSpace(req.WalletAddress)
	if n := utf8.RuneCountInString(address); n < domain.MinWalletAddressLen || n > domain.MaxWalletAddressLen {
		return nil, ErrInvalidWalletAddress
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, ErrInvalidCurrency
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокируем профиль, правила проверяются по живому состоянию
	profile, err := s.profiles.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}

	outstanding, err := s.withdrawals.HasOutstandingWithTx(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("check outstanding: %w", err)
	}

	now := s.now()
	if denial := eligibility.Evaluate(eligibility.Request{
		Profile:        profile,
		Settings:       settings,
		Now:            now,
		Amount:         req.Amount,
		HasOutstanding: outstanding,
	}); denial != nil {
		return nil, denial
	}

	if err := s.profiles.ApplyWithdrawalWithTx(ctx, tx, userID, req.Amount, now); err != nil {
		return nil, fmt.Errorf("deduct balance: %w", err)
	}

	entry := &domain.Transaction{
		UserID:      userID,
		Type:        domain.TxTypeWithdrawal,
		Amount:      req.Amount.Neg(),
		Status:      domain.TxStatusPending,
		Description: fmt.Sprintf("Withdrawal %s %s to %s", req.Amount.StringFixed(2), currency, shortAddress(address)),
	}
	if err := s.ledger.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	w := &domain.Withdrawal{
		UserID:        userID,
		AmountUSD:     req.Amount,
		Currency:      currency,
		Network:       strings.TrimSpace(req.Network),
		WalletAddress: address,
		Status:        domain.WithdrawalStatusPending,
		TransactionID: &entry.ID,
	}
	if err := s.withdrawals.CreateWithTx(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.WithdrawalsRequested.Inc()
	s.log.Info("withdrawal created", "withdrawal_id", w.ID, "user_id", userID, "amount", w.AmountUSD.String(), "currency", currency)

	// дальше всё best-effort
	s.notifier.WithdrawalCreated(ctx, w, profile)
	s.feed.Publish(userID, EventTransaction, entry)
	s.feed.Publish(userID, EventWithdrawal, w)

	return w, nil
}

// ListMine - заявки пользователя
func (s *WithdrawalService) ListMine(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.withdrawals.GetByUserID(ctx, userID, limit)
}

// DenialCode возвращает код отказа для ответа и метрик
func DenialCode(err error) string {
	var d *eligibility.Denial
	switch {
	case errors.As(err, &d):
		return d.Code
	case errors.Is(err, ErrInvalidWalletAddress):
		return "invalid_wallet_address"
	case errors.Is(err, ErrInvalidCurrency):
		return "invalid_currency"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	}
	return ""
}

func shortAddress(a string) string {
	if len(a) <= 12 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}
