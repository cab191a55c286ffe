package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentNotification - IPN от платежного шлюза
type PaymentNotification struct {
	PaymentID   string          `json:"payment_id"`
	OrderID     string          `json:"order_id"` // id пользователя
	Status      string          `json:"payment_status"`
	PriceAmount decimal.Decimal `json:"price_amount"`
	PayCurrency string          `json:"pay_currency"`
}

// статусы, при которых платеж зачисляется
func (n PaymentNotification) Paid() bool {
	switch strings.ToLower(n.Status) {
	case "finished", "confirmed":
		return true
	}
	return false
}

// зачисление депозитов и реферальных комиссий
type DepositService struct {
	db        TxBeginner
	profiles  ProfileStore
	deposits  DepositStore
	referrals ReferralStore
	balance   *BalanceService
	ipnSecret []byte
	feed      Publisher
	now       func() time.Time
	log       *slog.Logger
}

func NewDepositService(db TxBeginner, profiles ProfileStore, deposits DepositStore, referrals ReferralStore, balance *BalanceService, ipnSecret string) *DepositService {
	return &DepositService{
		db:        db,
		profiles:  profiles,
		deposits:  deposits,
		referrals: referrals,
		balance:   balance,
		ipnSecret: []byte(ipnSecret),
		feed:      noopPublisher{},
		now:       time.Now,
		log:       logger.With("component", "deposits"),
	}
}

func (s *DepositService) SetPublisher(p Publisher) { s.feed = p }

// VerifySignature проверяет HMAC-SHA512 тела запроса
func (s *DepositService) VerifySignature(body []byte, signature string) bool {
	if len(s.ipnSecret) == 0 || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, s.ipnSecret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign - для тестов и ручной отладки вебхука
func (s *DepositService) Sign(body []byte) string {
	mac := hmac.New(sha512.New, s.ipnSecret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ProcessPayment зачисляет оплаченный депозит. Повторный IPN с тем же payment_id ничего не делает.
// Возвращает true, если депозит зачислен сейчас
func (s *DepositService) ProcessPayment(ctx context.Context, n PaymentNotification) (bool, error) {
	if !n.Paid() {
		s.log.Info("ipn ignored", "payment_id", n.PaymentID, "status", n.Status)
		return false, nil
	}
	if n.PaymentID == "" || !n.PriceAmount.IsPositive() {
		return false, ErrInvalidAmount
	}

	// order_id целиком должен быть id пользователя: "12abc" не принимаем
	userID, err := strconv.ParseInt(strings.TrimSpace(n.OrderID), 10, 64)
	if err != nil || userID <= 0 {
		return false, ErrUserNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	profile, err := s.profiles.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return false, fmt.Errorf("lock profile: %w", err)
	}
	if profile == nil {
		return false, ErrUserNotFound
	}

	now := s.now()
	dep := &domain.Deposit{
		UserID:            userID,
		ProviderPaymentID: n.PaymentID,
		AmountUSD:         n.PriceAmount,
		Currency:          strings.ToUpper(n.PayCurrency),
		Status:            domain.DepositStatusConfirmed,
		ConfirmedAt:       &now,
	}
	inserted, err := s.deposits.CreateWithTx(ctx, tx, dep)
	if err != nil {
		return false, fmt.Errorf("create deposit: %w", err)
	}
	if !inserted {
		s.log.Info("ipn duplicate", "payment_id", n.PaymentID)
		return false, nil
	}

	// депозит - это тело, в total_earned не идет
	entry, err := s.balance.PostWithTx(ctx, tx, Posting{
		UserID:       userID,
		BalanceDelta: n.PriceAmount,
		EarnedDelta:  decimal.Zero,
		Type:         domain.TxTypeDeposit,
		Description:  fmt.Sprintf("Deposit %s %s", n.PriceAmount.StringFixed(2), dep.Currency),
		ReferenceID:  &dep.ID,
	})
	if err != nil {
		return false, err
	}

	commissions, err := s.creditUplines(ctx, tx, profile, n.PriceAmount, entry.ID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	s.log.Info("deposit credited", "user_id", userID, "amount", n.PriceAmount.String(), "payment_id", n.PaymentID, "commissions", len(commissions))

	s.feed.Publish(userID, EventTransaction, entry)
	for _, c := range commissions {
		s.feed.Publish(c.UserID, EventTransaction, c)
	}
	return true, nil
}

// начисляет комиссии пригласившим до 3 уровней вверх
func (s *DepositService) creditUplines(ctx context.Context, tx pgx.Tx, depositor *domain.Profile, amount decimal.Decimal, sourceTxID int64) ([]*domain.Transaction, error) {
	uplines, err := s.referrals.GetUplinesWithTx(ctx, tx, depositor.ID, domain.MaxReferralDepth)
	if err != nil {
		return nil, fmt.Errorf("load uplines: %w", err)
	}

	var entries []*domain.Transaction
	for i, referrerID := range uplines {
		level := i + 1
		rate, ok := domain.ReferralCommissionRates[level]
		if !ok {
			break
		}
		commission := amount.Mul(rate).Round(2)
		if !commission.IsPositive() {
			continue
		}

		entry, err := s.balance.PostWithTx(ctx, tx, Posting{
			UserID:       referrerID,
			BalanceDelta: commission,
			EarnedDelta:  commission,
			Type:         domain.TxTypeCommission,
			Description:  fmt.Sprintf("Referral commission L%d from %s", level, depositor.Username),
			ReferenceID:  &sourceTxID,
		})
		if err != nil {
			return nil, fmt.Errorf("credit commission: %w", err)
		}

		src := sourceTxID
		if err := s.referrals.CreateCommissionWithTx(ctx, tx, &domain.ReferralCommission{
			ReferrerID:          referrerID,
			ReferredID:          depositor.ID,
			Level:               level,
			Amount:              commission,
			SourceTransactionID: &src,
		}); err != nil {
			return nil, fmt.Errorf("record commission: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
