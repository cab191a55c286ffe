package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/eligibility"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"
	"vipclub_backend/internal/payout"

	"github.com/jackc/pgx/v5"
)

// обработка заявок админом: выплата, отклонение, повтор
type SettlementService struct {
	db          TxBeginner
	withdrawals WithdrawalStore
	ledger      LedgerStore
	balance     *BalanceService
	activity    *ActivityService
	payout      payout.Provider
	notifier    Notifier
	feed        Publisher
	now         func() time.Time
	log         *slog.Logger
}

func NewSettlementService(db TxBeginner, withdrawals WithdrawalStore, ledger LedgerStore, balance *BalanceService, activity *ActivityService, provider payout.Provider) *SettlementService {
	return &SettlementService{
		db:          db,
		withdrawals: withdrawals,
		ledger:      ledger,
		balance:     balance,
		activity:    activity,
		payout:      provider,
		notifier:    noopNotifier{},
		feed:        noopPublisher{},
		now:         time.Now,
		log:         logger.With("component", "settlement"),
	}
}

func (s *SettlementService) SetNotifier(n Notifier) { s.notifier = n }
func (s *SettlementService) SetPublisher(p Publisher) { s.feed = p }

// IdempotencyKey - ключ выплаты, одинаковый для всех попыток одной заявки
func IdempotencyKey(withdrawalID int64) string {
	return fmt.Sprintf("withdrawal-%d", withdrawalID)
}

// Approve: pending -> processing -> completed | error. При ошибке провайдера средства не возвращаются
func (s *SettlementService) Approve(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error) {
	w, err := s.claim(ctx, id)
	if err != nil {
		metrics.Settlements.WithLabelValues("approve", outcomeOf(err)).Inc()
		return nil, err
	}

	res, payErr := s.payout.Send(ctx, payout.Request{
		Address:        w.WalletAddress,
		Currency:       w.Currency,
		Network:        w.Network,
		Amount:         w.AmountUSD,
		IdempotencyKey: IdempotencyKey(w.ID),
	})
	if payErr != nil {
		return s.failPayout(ctx, w, adminID, payErr)
	}

	now := s.now()
	if err := s.complete(ctx, w, res, now); err != nil {
		// деньги ушли, а статус не записан: заявка остается в processing до ручного разбора
		s.log.Error("payout sent but completion not saved", "withdrawal_id", w.ID, "payout_id", res.PayoutID, "tx_hash", res.TxHash, "error", err)
		metrics.Settlements.WithLabelValues("approve", "error").Inc()
		return nil, err
	}

	w.Status = domain.WithdrawalStatusCompleted
	w.PayoutID = res.PayoutID
	w.TxHash = res.TxHash
	w.ErrorMessage = ""
	w.ProcessedAt = &now

	s.activity.Log(ctx, adminID, domain.ActivityWithdrawalApproved, w.ID, map[string]interface{}{
		"user_id":   w.UserID,
		"amount":    w.AmountUSD.String(),
		"currency":  w.Currency,
		"payout_id": res.PayoutID,
		"tx_hash":   res.TxHash,
	})
	metrics.Settlements.WithLabelValues("approve", "completed").Inc()
	s.log.Info("withdrawal completed", "withdrawal_id", w.ID, "admin_id", adminID, "payout_id", res.PayoutID)

	s.afterTransition(ctx, w)
	return w, nil
}

// claim забирает заявку в работу: pending -> processing
func (s *SettlementService) claim(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load withdrawal: %w", err)
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}

	startedAt := s.now()
	ok, err := s.withdrawals.StartProcessingWithTx(ctx, tx, id, startedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w.Status = domain.WithdrawalStatusProcessing
	w.ProcessingStartedAt = &startedAt
	return w, nil
}

func (s *SettlementService) complete(ctx context.Context, w *domain.Withdrawal, res *payout.Result, at time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := s.withdrawals.MarkCompletedWithTx(ctx, tx, w.ID, res.PayoutID, res.TxHash, at)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if w.TransactionID != nil {
		if _, err := s.ledger.UpdateStatusWithTx(ctx, tx, *w.TransactionID, domain.TxStatusPending, domain.TxStatusCompleted); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// failPayout: processing -> error, причина сохраняется в error_message
func (s *SettlementService) failPayout(ctx context.Context, w *domain.Withdrawal, adminID int64, payErr error) (*domain.Withdrawal, error) {
	now := s.now()
	msg := payErr.Error()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := s.withdrawals.MarkErrorWithTx(ctx, tx, w.ID, msg, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w.Status = domain.WithdrawalStatusError
	w.ErrorMessage = msg
	w.ProcessedAt = &now

	s.activity.Log(ctx, adminID, domain.ActivityWithdrawalPayoutFailed, w.ID, map[string]interface{}{
		"user_id":  w.UserID,
		"amount":   w.AmountUSD.String(),
		"currency": w.Currency,
		"error":    msg,
	})
	metrics.Settlements.WithLabelValues("approve", "payout_failed").Inc()
	s.log.Warn("payout failed", "withdrawal_id", w.ID, "admin_id", adminID, "error", msg)

	s.afterTransition(ctx, w)
	return w, fmt.Errorf("%w: %s", ErrPayoutFailed, msg)
}

// Reject: pending -> rejected с возвратом средств одной транзакцией
func (s *SettlementService) Reject(ctx context.Context, id, adminID int64, reason string) (*domain.Withdrawal, error) {
	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load withdrawal: %w", err)
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}

	ok, err := s.withdrawals.MarkRejectedWithTx(ctx, tx, id, reason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Settlements.WithLabelValues("reject", "invalid_transition").Inc()
		return nil, ErrInvalidTransition
	}

	balanceDelta, earnedDelta := eligibility.RejectionRefund(w.AmountUSD)
	refund, err := s.balance.PostWithTx(ctx, tx, Posting{
		UserID:       w.UserID,
		BalanceDelta: balanceDelta,
		EarnedDelta:  earnedDelta,
		Type:         domain.TxTypeWithdrawal,
		Description:  fmt.Sprintf("Refund for rejected withdrawal #%d", w.ID),
		ReferenceID:  &w.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	if w.TransactionID != nil {
		if _, err := s.ledger.UpdateStatusWithTx(ctx, tx, *w.TransactionID, domain.TxStatusPending, domain.TxStatusFailed); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w.Status = domain.WithdrawalStatusRejected
	w.AdminNotes = reason
	w.ProcessedAt = &now

	s.activity.Log(ctx, adminID, domain.ActivityWithdrawalRejected, w.ID, map[string]interface{}{
		"user_id":  w.UserID,
		"amount":   w.AmountUSD.String(),
		"currency": w.Currency,
		"reason":   reason,
	})
	metrics.Settlements.WithLabelValues("reject", "rejected").Inc()
	s.log.Info("withdrawal rejected", "withdrawal_id", w.ID, "admin_id", adminID)

	s.feed.Publish(w.UserID, EventTransaction, refund)
	s.afterTransition(ctx, w)
	return w, nil
}

// Retry: error -> pending, затем обычный Approve
func (s *SettlementService) Retry(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load withdrawal: %w", err)
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}

	ok, err := s.withdrawals.ResetForRetryWithTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.Settlements.WithLabelValues("retry", "invalid_transition").Inc()
		return nil, ErrInvalidTransition
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, adminID, domain.ActivityWithdrawalRetried, id, map[string]interface{}{
		"user_id":        w.UserID,
		"previous_error": w.ErrorMessage,
	})

	return s.Approve(ctx, id, adminID)
}

// MassPayoutItem - итог по одной заявке
type MassPayoutItem struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MassPayout одобряет заявки по очереди, ошибка одной не останавливает остальные
func (s *SettlementService) MassPayout(ctx context.Context, ids []int64, adminID int64) []MassPayoutItem {
	results := make([]MassPayoutItem, 0, len(ids))
	succeeded := 0

	for _, id := range ids {
		item := MassPayoutItem{ID: id}
		w, err := s.Approve(ctx, id, adminID)
		if w != nil {
			item.Status = string(w.Status)
		}
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Success = true
			succeeded++
		}
		results = append(results, item)

		if ctx.Err() != nil {
			break
		}
	}

	s.activity.Log(ctx, adminID, domain.ActivityMassPayout, 0, map[string]interface{}{
		"requested": len(ids),
		"processed": len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})

	return results
}

// List - заявки для админки
func (s *SettlementService) List(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.withdrawals.GetByStatus(ctx, status, limit)
}

func (s *SettlementService) Get(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}
	return w, nil
}

// CountByStatus - для /stats в боте
func (s *SettlementService) CountByStatus(ctx context.Context) (map[domain.WithdrawalStatus]int, error) {
	return s.withdrawals.CountByStatus(ctx)
}

func (s *SettlementService) afterTransition(ctx context.Context, w *domain.Withdrawal) {
	s.notifier.WithdrawalStatusChanged(ctx, w)
	s.feed.Publish(w.UserID, EventWithdrawal, w)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrWithdrawalNotFound):
		return "not_found"
	case errors.Is(err, pgx.ErrNoRows):
		return "not_found"
	}
	return "error"
}
