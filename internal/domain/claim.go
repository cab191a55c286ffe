package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimInterval - минимальный интервал между ежедневными наградами
const ClaimInterval = 24 * time.Hour

// Успешное получение ежедневной награды
type DailyClaim struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	VIPLevel  int             `db:"vip_level" json:"vip_level"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Состояние для экрана награды
type ClaimStatus struct {
	Eligible    bool            `json:"eligible"`
	Reward      decimal.Decimal `json:"reward"`
	VIPLevel    int             `json:"vip_level"`
	LastClaimAt *time.Time      `json:"last_claim_at,omitempty"`
	NextClaimAt *time.Time      `json:"next_claim_at,omitempty"`
	WaitSeconds int64           `json:"wait_seconds,omitempty"`
}
