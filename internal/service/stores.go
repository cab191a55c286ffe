package service

import (
	"context"
	"time"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxBeginner открывает транзакцию. *pgxpool.Pool подходит как есть
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Узкие интерфейсы над репозиториями, реализуются пакетом repository

type ProfileStore interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Profile, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.Profile, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Profile, error)
	ApplyWithdrawalWithTx(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal, at time.Time) error
	AdjustWithTx(ctx context.Context, tx pgx.Tx, id int64, balanceDelta, earnedDelta decimal.Decimal) error
	CreditDailyRewardWithTx(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error
	UpgradeVIPWithTx(ctx context.Context, tx pgx.Tx, id int64, level int, price decimal.Decimal) error
	SetTelegramID(ctx context.Context, id int64, telegramID int64) error
}

type WithdrawalStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Withdrawal, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error)
	GetByStatus(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	CreateWithTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error
	HasOutstanding(ctx context.Context, userID int64) (bool, error)
	HasOutstandingWithTx(ctx context.Context, tx pgx.Tx, userID int64) (bool, error)
	StartProcessingWithTx(ctx context.Context, tx pgx.Tx, id int64, at time.Time) (bool, error)
	MarkCompletedWithTx(ctx context.Context, tx pgx.Tx, id int64, payoutID, txHash string, at time.Time) (bool, error)
	MarkErrorWithTx(ctx context.Context, tx pgx.Tx, id int64, message string, at time.Time) (bool, error)
	MarkRejectedWithTx(ctx context.Context, tx pgx.Tx, id int64, reason string, at time.Time) (bool, error)
	ResetForRetryWithTx(ctx context.Context, tx pgx.Tx, id int64) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.WithdrawalStatus]int, error)
}

type LedgerStore interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, from, to domain.TransactionStatus) (bool, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
}

type ClaimStore interface {
	GetLast(ctx context.Context, userID int64) (*domain.DailyClaim, error)
	GetLastWithTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.DailyClaim, error)
	CreateWithTx(ctx context.Context, tx pgx.Tx, c *domain.DailyClaim) error
}

type ActivityStore interface {
	Create(ctx context.Context, log *domain.ActivityLog) error
	GetRecent(ctx context.Context, action string, limit int) ([]*domain.ActivityLog, error)
}

type SettingsStore interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type StatsStore interface {
	Increment(ctx context.Context, key string, delta decimal.Decimal) error
	GetAll(ctx context.Context) (map[string]decimal.Decimal, error)
}

type ReferralStore interface {
	GetUplinesWithTx(ctx context.Context, tx pgx.Tx, userID int64, depth int) ([]int64, error)
	CreateCommissionWithTx(ctx context.Context, tx pgx.Tx, c *domain.ReferralCommission) error
	GetCommissionTotals(ctx context.Context, referrerID int64) ([]domain.CommissionLevelTotal, error)
	CountReferrals(ctx context.Context, userID int64) (int, error)
}

type DepositStore interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, d *domain.Deposit) (bool, error)
}

// Notifier - исходящие уведомления о заявках. Ошибки не возвращаются
type Notifier interface {
	WithdrawalCreated(ctx context.Context, w *domain.Withdrawal, p *domain.Profile)
	WithdrawalStatusChanged(ctx context.Context, w *domain.Withdrawal)
}

// Publisher отправляет событие владельцу по websocket
type Publisher interface {
	Publish(userID int64, event string, data interface{})
}

type noopNotifier struct{}

func (noopNotifier) WithdrawalCreated(context.Context, *domain.Withdrawal, *domain.Profile) {}
func (noopNotifier) WithdrawalStatusChanged(context.Context, *domain.Withdrawal)            {}

type noopPublisher struct{}

func (noopPublisher) Publish(int64, string, interface{}) {}

// события для websocket
const (
	EventTransaction = "transaction"
	EventWithdrawal  = "withdrawal"
)
