package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Пополнение через платежный шлюз
type Deposit struct {
	ID                int64           `db:"id" json:"id"`
	UserID            int64           `db:"user_id" json:"user_id"`
	ProviderPaymentID string          `db:"provider_payment_id" json:"provider_payment_id"`
	AmountUSD         decimal.Decimal `db:"amount_usd" json:"amount_usd"`
	Currency          string          `db:"currency" json:"currency"`
	Status            DepositStatus   `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	ConfirmedAt       *time.Time      `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

// Статус обработки пополнения
type DepositStatus string

const (
	DepositStatusWaiting   DepositStatus = "waiting"
	DepositStatusConfirmed DepositStatus = "confirmed"
	DepositStatusFailed    DepositStatus = "failed"
)
