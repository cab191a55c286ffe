package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// клиент TON API (tonapi.io), нужен чтобы найти уже отправленную выплату
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// создает новый клиент TON API
func NewClient(network Network, apiKey string) *Client {
	baseURL := TonAPIMainnet
	if network == NetworkTestnet {
		baseURL = TonAPITestnet
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// для тестов
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type AccountAddress struct {
	Address string `json:"address"`
}

// Transaction представляет транзакцию в сети TON (tonapi.io v2 format)
type Transaction struct {
	Hash    string    `json:"hash"`
	Lt      int64     `json:"lt"`
	Utime   int64     `json:"utime"`
	InMsg   *Message  `json:"in_msg"`
	OutMsgs []Message `json:"out_msgs"`
	Success bool      `json:"success"`
}

type Message struct {
	Value       int64           `json:"value"`
	Destination *AccountAddress `json:"destination"`
	Source      *AccountAddress `json:"source"`
	DecodedBody *DecodedBody    `json:"decoded_body"`
}

type DecodedBody struct {
	Text string `json:"text"`
}

// получает последние транзакции для адреса
func (c *Client) GetTransactions(ctx context.Context, address string, limit int) ([]Transaction, error) {
	reqURL := fmt.Sprintf("%s/blockchain/accounts/%s/transactions?limit=%d", c.baseURL, address, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ошибка API: %s - %s", resp.Status, string(body))
	}

	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Transactions, nil
}

// FindOutgoingByComment ищет среди последних транзакций кошелька исходящий перевод с комментарием
func (c *Client) FindOutgoingByComment(ctx context.Context, walletAddress, comment string, limit int) (*Transaction, error) {
	txs, err := c.GetTransactions(ctx, walletAddress, limit)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		for _, m := range txs[i].OutMsgs {
			if m.DecodedBody != nil && m.DecodedBody.Text == comment {
				return &txs[i], nil
			}
		}
	}
	return nil, nil
}

// setAuthHeader устанавливает заголовок авторизации если ключ задан
func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
