package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Заявка на вывод профита
type Withdrawal struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	AmountUSD     decimal.Decimal  `db:"amount_usd" json:"amount_usd"`
	Currency      string           `db:"currency" json:"currency"`
	Network       string           `db:"network" json:"network,omitempty"`
	WalletAddress string           `db:"wallet_address" json:"wallet_address"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	PayoutID      string           `db:"payout_id" json:"payout_id,omitempty"`
	TxHash        string           `db:"tx_hash" json:"tx_hash,omitempty"`
	ErrorMessage  string           `db:"error_message" json:"error_message,omitempty"` // причина отказа провайдера
	TransactionID *int64           `db:"transaction_id" json:"transaction_id,omitempty"`
	AdminNotes    string           `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processed_at,omitempty"`

	ProcessingStartedAt *time.Time `db:"processing_started_at" json:"processing_started_at,omitempty"` // когда ушла в выплату
}

// Статус вывода
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
	WithdrawalStatusError      WithdrawalStatus = "error"
)

// IsOutstanding - заявка еще не обработана, вторую создать нельзя
func (s WithdrawalStatus) IsOutstanding() bool {
	return s == WithdrawalStatusPending || s == WithdrawalStatusProcessing
}

// Платежка ОТ пользователя
type WithdrawRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	WalletAddress string          `json:"walletAddress"`
	Network       string          `json:"network,omitempty"`
}

// лимиты на длину адреса, без проверки контрольной суммы сети
const (
	MinWalletAddressLen = 20
	MaxWalletAddressLen = 100
)
