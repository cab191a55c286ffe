package service

import (
	"context"

	"vipclub_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// ReferralInfo - код и количество приглашенных
type ReferralInfo struct {
	Code      string `json:"code"`
	Referrals int    `json:"referrals"`
}

// только чтение: сводки по комиссиям
type ReferralService struct {
	profiles  ProfileStore
	referrals ReferralStore
}

func NewReferralService(profiles ProfileStore, referrals ReferralStore) *ReferralService {
	return &ReferralService{profiles: profiles, referrals: referrals}
}

// Commissions - суммы по уровням 1..3, пустые уровни с нулем
func (s *ReferralService) Commissions(ctx context.Context, userID int64) (*domain.CommissionSummary, error) {
	totals, err := s.referrals.GetCommissionTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	byLevel := make(map[int]domain.CommissionLevelTotal, len(totals))
	for _, t := range totals {
		byLevel[t.Level] = t
	}

	summary := &domain.CommissionSummary{Total: decimal.Zero}
	for level := 1; level <= domain.MaxReferralDepth; level++ {
		t, ok := byLevel[level]
		if !ok {
			t = domain.CommissionLevelTotal{Level: level, Total: decimal.Zero}
		}
		summary.Levels = append(summary.Levels, t)
		summary.Total = summary.Total.Add(t.Total)
	}
	return summary, nil
}

func (s *ReferralService) Info(ctx context.Context, userID int64) (*ReferralInfo, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	count, err := s.referrals.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ReferralInfo{Code: profile.ReferralCode, Referrals: count}, nil
}
