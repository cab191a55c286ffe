package service

import (
	"context"
	"errors"
	"testing"

	"vipclub_backend/internal/domain"
)

func TestSettingsUpdate(t *testing.T) {
	db := newMemDB()
	svc := NewSettingsService(memSettings{db}, NewActivityService(memActivity{db}))

	s, err := svc.Snapshot(context.Background())
	if err != nil || !s.WithdrawalsEnabled || s.CooldownHours != domain.DefaultCooldownHours {
		t.Fatalf("defaults = %+v, %v", s, err)
	}

	s, err = svc.Update(context.Background(), 1, map[string]string{
		domain.SettingMaxWithdrawal:           "250",
		domain.SettingWithdrawalCooldownHours: "12",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !s.MaxWithdrawal.Equal(dec("250")) || s.CooldownHours != 12 {
		t.Fatalf("settings = %+v", s)
	}
	if a := db.actions(); len(a) != 1 || a[0] != domain.ActivitySettingsUpdated {
		t.Fatalf("activity = %v", a)
	}

	// одна битая пара отменяет всё обновление
	_, err = svc.Update(context.Background(), 1, map[string]string{
		domain.SettingWithdrawalsEnabled: "false",
		domain.SettingMaxWithdrawal:      "1",
	})
	if !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := db.settings[domain.SettingWithdrawalsEnabled]; ok {
		t.Fatal("partial update saved")
	}

	if _, err := svc.Update(context.Background(), 1, map[string]string{"color": "red"}); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("unknown key: %v", err)
	}
}
