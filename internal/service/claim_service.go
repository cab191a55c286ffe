package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"
	"vipclub_backend/internal/repository"

	"github.com/shopspring/decimal"
)

// ClaimTooEarlyError - награда уже получена за последние 24 часа
type ClaimTooEarlyError struct {
	NextClaimAt time.Time
	Remaining   time.Duration
}

func (e *ClaimTooEarlyError) Error() string {
	return fmt.Sprintf("%s, осталось %s", ErrClaimTooEarly.Error(), e.Remaining.Round(time.Second))
}

func (e *ClaimTooEarlyError) Is(target error) bool { return target == ErrClaimTooEarly }

// ежедневная награда по VIP уровню
type ClaimService struct {
	db       TxBeginner
	profiles ProfileStore
	claims   ClaimStore
	ledger   LedgerStore
	stats    StatsStore
	feed     Publisher
	now      func() time.Time
	log      *slog.Logger
}

func NewClaimService(db TxBeginner, profiles ProfileStore, claims ClaimStore, ledger LedgerStore, stats StatsStore) *ClaimService {
	return &ClaimService{
		db:       db,
		profiles: profiles,
		claims:   claims,
		ledger:   ledger,
		stats:    stats,
		feed:     noopPublisher{},
		now:      time.Now,
		log:      logger.With("component", "daily_claim"),
	}
}

func (s *ClaimService) SetPublisher(p Publisher) { s.feed = p }

// ClaimResult - начисленная награда и новые значения профиля
type ClaimResult struct {
	Claim       *domain.DailyClaim  `json:"claim"`
	Transaction *domain.Transaction `json:"transaction"`
	NextClaimAt time.Time           `json:"next_claim_at"`
}

// Status - можно ли забрать награду сейчас
func (s *ClaimService) Status(ctx context.Context, userID int64) (*domain.ClaimStatus, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}

	last, err := s.claims.GetLast(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &domain.ClaimStatus{
		Reward:   domain.DailyReward(profile.VIPLevel),
		VIPLevel: profile.VIPLevel,
	}
	if last != nil {
		next := last.CreatedAt.Add(domain.ClaimInterval)
		st.LastClaimAt = &last.CreatedAt
		st.NextClaimAt = &next
	}
	st.Eligible = checkClaim(profile, last, s.now()) == nil
	if st.NextClaimAt != nil && !st.Eligible && profile.VIPLevel > 0 {
		st.WaitSeconds = int64(st.NextClaimAt.Sub(s.now()).Round(time.Second) / time.Second)
	}
	return st, nil
}

// Claim начисляет награду одной транзакцией
func (s *ClaimService) Claim(ctx context.Context, userID int64) (*ClaimResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокировка профиля сериализует параллельные клики
	profile, err := s.profiles.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}

	last, err := s.claims.GetLastWithTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := checkClaim(profile, last, now); err != nil {
		return nil, err
	}

	reward := domain.DailyReward(profile.VIPLevel)
	claim := &domain.DailyClaim{
		UserID:    userID,
		Amount:    reward,
		VIPLevel:  profile.VIPLevel,
		CreatedAt: now,
	}
	if err := s.claims.CreateWithTx(ctx, tx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	if err := s.profiles.CreditDailyRewardWithTx(ctx, tx, userID, reward); err != nil {
		return nil, fmt.Errorf("credit reward: %w", err)
	}

	entry := &domain.Transaction{
		UserID:      userID,
		Type:        domain.TxTypeDailyReward,
		Amount:      reward,
		Status:      domain.TxStatusCompleted,
		Description: fmt.Sprintf("Daily reward VIP %d", profile.VIPLevel),
		ReferenceID: &claim.ID,
	}
	if err := s.ledger.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// общая статистика не критична
	if err := s.stats.Increment(ctx, repository.StatTotalRewardsPaid, reward); err != nil {
		s.log.Warn("failed to update platform stats", "error", err)
	}

	metrics.DailyClaims.Inc()
	s.feed.Publish(userID, EventTransaction, entry)

	return &ClaimResult{
		Claim:       claim,
		Transaction: entry,
		NextClaimAt: now.Add(domain.ClaimInterval),
	}, nil
}

func checkClaim(p *domain.Profile, last *domain.DailyClaim, now time.Time) error {
	if p.VIPLevel <= 0 || domain.DailyReward(p.VIPLevel).Equal(decimal.Zero) {
		return ErrNoVIP
	}
	if last == nil {
		return nil
	}
	next := last.CreatedAt.Add(domain.ClaimInterval)
	if now.Before(next) {
		return &ClaimTooEarlyError{NextClaimAt: next, Remaining: next.Sub(now)}
	}
	return nil
}
