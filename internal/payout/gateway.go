package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vipclub_backend/internal/metrics"
)

// GatewayClient - HTTP API платежного шлюза
type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGatewayClient(baseURL, apiKey string) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *GatewayClient) Name() string { return "gateway" }

type gatewayRequest struct {
	Address        string `json:"address"`
	Currency       string `json:"currency"`
	Network        string `json:"network,omitempty"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

type gatewayResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *GatewayClient) Send(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PayoutDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(gatewayRequest{
		Address:        req.Address,
		Currency:       strings.ToLower(req.Currency),
		Network:        req.Network,
		Amount:         req.Amount.StringFixed(2),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payout", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payout request: %w", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var out gatewayResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payout rejected (%d): %s", resp.StatusCode, out.message(raw))
	}
	if readErr != nil {
		return nil, fmt.Errorf("read payout response: %w", readErr)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode payout response: %w", decodeErr)
	}

	status := strings.ToLower(strings.TrimSpace(out.Status))
	if !finalSuccessStatuses[status] {
		return nil, fmt.Errorf("payout failed (status %q): %s", out.Status, out.message(raw))
	}
	if out.ID == "" {
		return nil, fmt.Errorf("payout response without id")
	}

	return &Result{PayoutID: out.ID, TxHash: out.Hash}, nil
}

// статусы шлюза, после которых деньги считаются отправленными
var finalSuccessStatuses = map[string]bool{
	"sent":      true,
	"completed": true,
	"finished":  true,
	"success":   true,
}

func (r gatewayResponse) message(raw []byte) string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Error != "":
		return r.Error
	case len(raw) > 0:
		if len(raw) > 200 {
			raw = raw[:200]
		}
		return string(raw)
	}
	return "empty response"
}
