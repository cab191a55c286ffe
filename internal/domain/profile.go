package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Профиль пользователя платформы
type Profile struct {
	ID               int64           `db:"id" json:"id"`
	Email            string          `db:"email" json:"email"`
	PasswordHash     string          `db:"password_hash" json:"-"`
	Username         string          `db:"username" json:"username"`
	TelegramID       *int64          `db:"telegram_id" json:"telegram_id,omitempty"`
	IsAdmin          bool            `db:"is_admin" json:"is_admin"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`           // все средства: депозиты + профит
	TotalEarned      decimal.Decimal `db:"total_earned" json:"total_earned"` // только профит, его и можно вывести
	VIPLevel         int             `db:"vip_level" json:"vip_level"`
	DailyChallenges  int             `db:"daily_challenges" json:"daily_challenges"`
	LastWithdrawalAt *time.Time      `db:"last_withdrawal_at" json:"last_withdrawal_at,omitempty"`
	ReferralCode     string          `db:"referral_code" json:"referral_code"`
	ReferredBy       *int64          `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// VIP уровни
const (
	MaxVIPLevel = 6
)

// ежедневная награда по уровню VIP, уровень 0 ничего не дает
var DailyRewards = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.50"),
	2: decimal.RequireFromString("1.20"),
	3: decimal.RequireFromString("3.00"),
	4: decimal.RequireFromString("7.50"),
	5: decimal.RequireFromString("18.00"),
	6: decimal.RequireFromString("45.00"),
}

// стоимость открытия уровня
var VIPPrices = map[int]decimal.Decimal{
	1: decimal.RequireFromString("10"),
	2: decimal.RequireFromString("25"),
	3: decimal.RequireFromString("60"),
	4: decimal.RequireFromString("150"),
	5: decimal.RequireFromString("350"),
	6: decimal.RequireFromString("850"),
}

// DailyReward возвращает награду за день для уровня (ноль для неизвестных уровней)
func DailyReward(level int) decimal.Decimal {
	if r, ok := DailyRewards[level]; ok {
		return r
	}
	return decimal.Zero
}
