package domain

import "time"

// Логирование действий админов
type ActivityLog struct {
	ID        int64                  `db:"id" json:"id"`
	AdminID   int64                  `db:"admin_id" json:"admin_id"`
	Action    string                 `db:"action" json:"action"`
	TargetID  int64                  `db:"target_id" json:"target_id"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

const (
	// Выводы
	ActivityWithdrawalApproved     = "withdrawal_approved"
	ActivityWithdrawalPayoutFailed = "withdrawal_payout_failed"
	ActivityWithdrawalRejected     = "withdrawal_rejected"
	ActivityWithdrawalRetried      = "withdrawal_retried"
	ActivityMassPayout             = "mass_payout"

	// Настройки
	ActivitySettingsUpdated = "settings_updated"
)
