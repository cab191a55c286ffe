package payout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"
	"vipclub_backend/internal/ton"

	"github.com/shopspring/decimal"
)

// TonSender - кошелек платформы
type TonSender interface {
	SendTON(ctx context.Context, toAddress string, amountNano uint64, comment string) (*ton.SendResult, error)
	GetAddress() string
}

// TonLookup ищет уже отправленный перевод по комментарию
type TonLookup interface {
	FindOutgoingByComment(ctx context.Context, walletAddress, comment string, limit int) (*ton.Transaction, error)
}

// TonProvider платит в TON с кошелька платформы. Сумма в USD пересчитывается по курсу
type TonProvider struct {
	wallet    TonSender
	lookup    TonLookup
	usdPerTON decimal.Decimal
	log       *slog.Logger
}

func NewTonProvider(wallet TonSender, lookup TonLookup, usdPerTON decimal.Decimal) *TonProvider {
	return &TonProvider{
		wallet:    wallet,
		lookup:    lookup,
		usdPerTON: usdPerTON,
		log:       logger.With("component", "payout_ton"),
	}
}

func (p *TonProvider) Name() string { return "ton" }

func (p *TonProvider) Send(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PayoutDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	}()

	if !ton.ValidateAddress(req.Address) {
		return nil, fmt.Errorf("invalid TON address")
	}

	nano, err := ton.USDToNano(req.Amount, p.usdPerTON)
	if err != nil {
		return nil, err
	}

	// повтор после ошибки: если перевод с этим ключом уже ушел, второй раз не платим
	if p.lookup != nil && req.IdempotencyKey != "" {
		prev, err := p.lookup.FindOutgoingByComment(ctx, p.wallet.GetAddress(), req.IdempotencyKey, 50)
		if err != nil {
			// без проверки не отправляем: перевод мог уйти в прошлой попытке
			p.log.Warn("idempotency lookup failed, payout not sent", "key", req.IdempotencyKey, "error", err)
			return nil, fmt.Errorf("check previous transfer: %w", err)
		}
		if prev != nil {
			p.log.Info("payout already sent", "key", req.IdempotencyKey, "tx_hash", prev.Hash)
			return &Result{PayoutID: req.IdempotencyKey, TxHash: prev.Hash}, nil
		}
	}

	res, err := p.wallet.SendTON(ctx, req.Address, nano, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	return &Result{PayoutID: req.IdempotencyKey, TxHash: res.TxHash}, nil
}
