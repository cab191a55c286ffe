package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// проценты комиссии с депозита по уровню реферала
var ReferralCommissionRates = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.10"),
	2: decimal.RequireFromString("0.05"),
	3: decimal.RequireFromString("0.02"),
}

const MaxReferralDepth = 3

// Начисленная комиссия
type ReferralCommission struct {
	ID                  int64           `db:"id" json:"id"`
	ReferrerID          int64           `db:"referrer_id" json:"referrer_id"`
	ReferredID          int64           `db:"referred_id" json:"referred_id"`
	Level               int             `db:"level" json:"level"`
	Amount              decimal.Decimal `db:"amount" json:"amount"`
	SourceTransactionID *int64          `db:"source_transaction_id" json:"source_transaction_id,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// Сумма комиссий по одному уровню
type CommissionLevelTotal struct {
	Level int             `json:"level"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Сводка для экрана рефералов
type CommissionSummary struct {
	Levels []CommissionLevelTotal `json:"levels"`
	Total  decimal.Decimal        `json:"total"`
}
