package service

import (
	"context"
	"fmt"

	"vipclub_backend/internal/domain"

	"github.com/shopspring/decimal"
)

// VIPLevelInfo - строка таблицы уровней
type VIPLevelInfo struct {
	Level       int             `json:"level"`
	Price       decimal.Decimal `json:"price"`
	DailyReward decimal.Decimal `json:"daily_reward"`
}

type VIPService struct {
	db       TxBeginner
	profiles ProfileStore
	ledger   LedgerStore
	feed     Publisher
}

func NewVIPService(db TxBeginner, profiles ProfileStore, ledger LedgerStore) *VIPService {
	return &VIPService{db: db, profiles: profiles, ledger: ledger, feed: noopPublisher{}}
}

func (s *VIPService) SetPublisher(p Publisher) { s.feed = p }

// Levels возвращает цены и награды по уровням
func (s *VIPService) Levels() []VIPLevelInfo {
	levels := make([]VIPLevelInfo, 0, domain.MaxVIPLevel)
	for l := 1; l <= domain.MaxVIPLevel; l++ {
		levels = append(levels, VIPLevelInfo{
			Level:       l,
			Price:       domain.VIPPrices[l],
			DailyReward: domain.DailyReward(l),
		})
	}
	return levels
}

// Upgrade покупает уровень за balance. Если после списания total_earned больше balance, он урезается
func (s *VIPService) Upgrade(ctx context.Context, userID int64, level int) (*domain.Profile, error) {
	price, ok := domain.VIPPrices[level]
	if !ok {
		return nil, ErrInvalidLevel
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	profile, err := s.profiles.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	if level <= profile.VIPLevel {
		return nil, ErrInvalidLevel
	}
	if profile.Balance.LessThan(price) {
		return nil, ErrInsufficientFunds
	}

	if err := s.profiles.UpgradeVIPWithTx(ctx, tx, userID, level, price); err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	entry := &domain.Transaction{
		UserID:      userID,
		Type:        domain.TxTypeVIPUpgrade,
		Amount:      price.Neg(),
		Status:      domain.TxStatusCompleted,
		Description: fmt.Sprintf("VIP level %d", level),
	}
	if err := s.ledger.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	profile.Balance = profile.Balance.Sub(price)
	profile.TotalEarned = decimal.Min(profile.TotalEarned, profile.Balance)
	profile.VIPLevel = level

	s.feed.Publish(userID, EventTransaction, entry)
	return profile, nil
}
