package service

import (
	"context"
	"errors"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// обрабатывает изменения баланса с записью в журнал
type BalanceService struct {
	profiles ProfileStore
	ledger   LedgerStore
}

// создает новый сервис баланса
func NewBalanceService(profiles ProfileStore, ledger LedgerStore) *BalanceService {
	return &BalanceService{
		profiles: profiles,
		ledger:   ledger,
	}
}

// Posting - одно движение по балансу
type Posting struct {
	UserID       int64
	BalanceDelta decimal.Decimal
	EarnedDelta  decimal.Decimal
	Type         domain.TransactionType
	Description  string
	ReferenceID  *int64
}

// применяет движение в рамках существующей транзакции и пишет completed запись в журнал
func (s *BalanceService) PostWithTx(ctx context.Context, tx pgx.Tx, p Posting) (*domain.Transaction, error) {
	if p.BalanceDelta.IsZero() && p.EarnedDelta.IsZero() {
		return nil, ErrInvalidAmount
	}

	if err := s.profiles.AdjustWithTx(ctx, tx, p.UserID, p.BalanceDelta, p.EarnedDelta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// записываем транзакцию
	transaction := &domain.Transaction{
		UserID:      p.UserID,
		Type:        p.Type,
		Amount:      p.BalanceDelta,
		Status:      domain.TxStatusCompleted,
		Description: p.Description,
		ReferenceID: p.ReferenceID,
	}
	if err := s.ledger.CreateWithTx(ctx, tx, transaction); err != nil {
		return nil, err
	}

	return transaction, nil
}

// возвращает историю транзакций пользователя
func (s *BalanceService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledger.GetByUserID(ctx, userID, limit)
}
