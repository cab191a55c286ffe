package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Запись в журнале операций (append-only)
type Transaction struct {
	ID          int64             `db:"id" json:"id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"` // со знаком
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	ReferenceID *int64            `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

type TransactionType string

const (
	TxTypeDeposit     TransactionType = "deposit"
	TxTypeWithdrawal  TransactionType = "withdrawal"
	TxTypeDailyReward TransactionType = "daily_reward"
	TxTypeCommission  TransactionType = "commission"
	TxTypeVIPUpgrade  TransactionType = "vip_upgrade"
	TxTypeChallenge   TransactionType = "challenge"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
)
