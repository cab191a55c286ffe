// Package payout отправляет деньги пользователю через внешнего провайдера.
package payout

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoProvider = errors.New("нет провайдера для валюты")

// Request - одна выплата
type Request struct {
	Address        string
	Currency       string
	Network        string
	Amount         decimal.Decimal // в USD
	IdempotencyKey string
}

// Result - данные провайдера об успешной выплате
type Result struct {
	PayoutID string
	TxHash   string
}

// Provider выполняет выплату. Повтор с тем же IdempotencyKey не должен платить дважды
type Provider interface {
	Send(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// Router выбирает провайдера по валюте, иначе отдает fallback
type Router struct {
	byCurrency map[string]Provider
	fallback   Provider
}

func NewRouter(fallback Provider) *Router {
	return &Router{byCurrency: make(map[string]Provider), fallback: fallback}
}

// Handle регистрирует провайдера для валюты
func (r *Router) Handle(currency string, p Provider) {
	r.byCurrency[strings.ToUpper(currency)] = p
}

func (r *Router) Name() string { return "router" }

func (r *Router) Send(ctx context.Context, req Request) (*Result, error) {
	p, ok := r.byCurrency[strings.ToUpper(req.Currency)]
	if !ok {
		p = r.fallback
	}
	if p == nil {
		return nil, ErrNoProvider
	}
	return p.Send(ctx, req)
}
