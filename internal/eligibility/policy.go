// Package eligibility решает, можно ли прямо сейчас создать заявку на вывод.
// Одна и та же функция используется и для превью в интерфейсе, и в обработчике создания заявки.
package eligibility

import (
	"fmt"
	"time"

	"vipclub_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// коды отказа
const (
	CodeWithdrawalsDisabled   = "withdrawals_disabled"
	CodeWindowClosed          = "window_closed"
	CodeAmountBelowMinimum    = "amount_below_minimum"
	CodeAmountAboveMaximum    = "amount_above_maximum"
	CodeEarningsOnly          = "earnings_only"
	CodeInsufficientBalance   = "insufficient_balance"
	CodeWithdrawalOutstanding = "withdrawal_outstanding"
	CodeCooldownActive        = "cooldown_active"
)

// Request - все входные данные правила
type Request struct {
	Profile        *domain.Profile
	Settings       domain.Settings
	Now            time.Time
	Amount         decimal.Decimal
	HasOutstanding bool // есть заявка в pending/processing
}

// Denial - причина отказа
type Denial struct {
	Code             string     `json:"code"`
	Message          string     `json:"message"`
	RemainingSeconds int64      `json:"remaining_seconds,omitempty"`
	NextAllowedAt    *time.Time `json:"next_allowed_at,omitempty"`
}

func (d *Denial) Error() string {
	return d.Message
}

// Evaluate проверяет правила по порядку, возвращает nil если вывод разрешен
func Evaluate(req Request) *Denial {
	if !req.Settings.WithdrawalsEnabled {
		return &Denial{Code: CodeWithdrawalsDisabled, Message: "withdrawals are temporarily disabled"}
	}

	// окно проверяется первым и не зависит от суммы
	if !InWindow(req.Now) {
		next := NextWindowOpen(req.Now)
		return &Denial{
			Code:          CodeWindowClosed,
			Message:       fmt.Sprintf("withdrawal window closed, withdrawals are accepted daily %02d:00-%02d:00 UTC", domain.WithdrawalWindowStart, domain.WithdrawalWindowEnd),
			NextAllowedAt: &next,
		}
	}

	if req.Amount.LessThan(domain.MinWithdrawalAmount) {
		return &Denial{
			Code:    CodeAmountBelowMinimum,
			Message: fmt.Sprintf("minimum withdrawal is %s USD", domain.MinWithdrawalAmount.StringFixed(2)),
		}
	}

	if req.Amount.GreaterThan(req.Settings.MaxWithdrawal) {
		return &Denial{
			Code:    CodeAmountAboveMaximum,
			Message: fmt.Sprintf("maximum withdrawal is %s USD", req.Settings.MaxWithdrawal.StringFixed(2)),
		}
	}

	p := req.Profile
	if req.Amount.GreaterThan(p.TotalEarned) {
		return &Denial{
			Code:    CodeEarningsOnly,
			Message: fmt.Sprintf("only earned profit can be withdrawn, available %s USD", p.TotalEarned.StringFixed(2)),
		}
	}

	if req.Amount.GreaterThan(p.Balance) {
		return &Denial{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	}

	if req.HasOutstanding {
		return &Denial{Code: CodeWithdrawalOutstanding, Message: "you already have a pending withdrawal"}
	}

	if p.LastWithdrawalAt != nil {
		next := p.LastWithdrawalAt.Add(req.Settings.Cooldown())
		if req.Now.Before(next) {
			remaining := next.Sub(req.Now)
			return &Denial{
				Code:             CodeCooldownActive,
				Message:          fmt.Sprintf("next withdrawal available in %s", FormatWait(remaining)),
				RemainingSeconds: int64(remaining.Round(time.Second) / time.Second),
				NextAllowedAt:    &next,
			}
		}
	}

	return nil
}

// InWindow - текущий час UTC попадает в [start, end)
func InWindow(now time.Time) bool {
	h := now.UTC().Hour()
	return h >= domain.WithdrawalWindowStart && h < domain.WithdrawalWindowEnd
}

// NextWindowOpen возвращает ближайшее открытие окна строго после now (или now, если окно открыто)
func NextWindowOpen(now time.Time) time.Time {
	if InWindow(now) {
		return now
	}
	u := now.UTC()
	open := time.Date(u.Year(), u.Month(), u.Day(), domain.WithdrawalWindowStart, 0, 0, 0, time.UTC)
	if !u.Before(open) {
		open = open.Add(24 * time.Hour)
	}
	return open
}

// FormatWait форматирует оставшееся время как "5h 3m"
func FormatWait(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// RejectionRefund - сколько вернуть при отклонении заявки.
// Возвращается только balance, total_earned не восстанавливается.
func RejectionRefund(amount decimal.Decimal) (balanceDelta, earnedDelta decimal.Decimal) {
	return amount, decimal.Zero
}
