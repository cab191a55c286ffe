package service

import (
	"context"
	"fmt"
	"strconv"

	"vipclub_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// настройки из admin_settings
type SettingsService struct {
	repo     SettingsStore
	activity *ActivityService
}

func NewSettingsService(repo SettingsStore, activity *ActivityService) *SettingsService {
	return &SettingsService{repo: repo, activity: activity}
}

// Snapshot читает настройки один раз, отсутствующие ключи берутся по умолчанию
func (s *SettingsService) Snapshot(ctx context.Context) (domain.Settings, error) {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return domain.SettingsFromMap(values), nil
}

// Update валидирует и сохраняет переданные ключи
func (s *SettingsService) Update(ctx context.Context, adminID int64, values map[string]string) (domain.Settings, error) {
	for key, value := range values {
		if err := validateSetting(key, value); err != nil {
			return domain.Settings{}, err
		}
	}

	for key, value := range values {
		if err := s.repo.Set(ctx, key, value); err != nil {
			return domain.Settings{}, fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	details := make(map[string]interface{}, len(values))
	for k, v := range values {
		details[k] = v
	}
	s.activity.Log(ctx, adminID, domain.ActivitySettingsUpdated, 0, details)

	return s.Snapshot(ctx)
}

func validateSetting(key, value string) error {
	switch key {
	case domain.SettingMaxWithdrawal:
		d, err := decimal.NewFromString(value)
		if err != nil || !d.GreaterThanOrEqual(domain.MinWithdrawalAmount) {
			return fmt.Errorf("%w: %s", ErrInvalidSetting, key)
		}
	case domain.SettingWithdrawalCooldownHours:
		h, err := strconv.Atoi(value)
		if err != nil || h < 0 || h > 24*30 {
			return fmt.Errorf("%w: %s", ErrInvalidSetting, key)
		}
	case domain.SettingWithdrawalsEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidSetting, key)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return nil
}
