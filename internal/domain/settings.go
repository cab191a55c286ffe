package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ключи в admin_settings
const (
	SettingMaxWithdrawal           = "max_withdrawal"
	SettingWithdrawalCooldownHours = "withdrawal_cooldown_hours"
	SettingWithdrawalsEnabled      = "withdrawals_enabled"
)

// значения по умолчанию, если ключа нет
var (
	DefaultMaxWithdrawal  = decimal.NewFromInt(1000)
	DefaultCooldownHours  = 24
	MinWithdrawalAmount   = decimal.NewFromInt(2)
	WithdrawalWindowStart = 12 // UTC, включительно
	WithdrawalWindowEnd   = 13 // UTC, не включительно
)

// Снимок настроек, читается один раз на запрос
type Settings struct {
	MaxWithdrawal      decimal.Decimal `json:"max_withdrawal"`
	CooldownHours      int             `json:"withdrawal_cooldown_hours"`
	WithdrawalsEnabled bool            `json:"withdrawals_enabled"`
}

// DefaultSettings - настройки, если таблица пустая
func DefaultSettings() Settings {
	return Settings{
		MaxWithdrawal:      DefaultMaxWithdrawal,
		CooldownHours:      DefaultCooldownHours,
		WithdrawalsEnabled: true,
	}
}

// Cooldown возвращает задержку между выводами
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.CooldownHours) * time.Hour
}

// SettingsFromMap собирает снимок из пар ключ-значение, битые значения игнорируются
func SettingsFromMap(values map[string]string) Settings {
	s := DefaultSettings()

	if v, ok := values[SettingMaxWithdrawal]; ok {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			s.MaxWithdrawal = d
		}
	}
	if v, ok := values[SettingWithdrawalCooldownHours]; ok {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 {
			s.CooldownHours = h
		}
	}
	if v, ok := values[SettingWithdrawalsEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.WithdrawalsEnabled = b
		}
	}

	return s
}
