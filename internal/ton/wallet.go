package ton

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vipclub_backend/internal/logger"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Wallet представляет TON кошелек платформы для выплат
type Wallet struct {
	client  *ton.APIClient
	wallet  *wallet.Wallet
	network Network
	log     *slog.Logger
}

// SendResult результат отправки транзакции
type SendResult struct {
	TxHash string
}

// NewWallet создает новый кошелек из мнемоники
func NewWallet(ctx context.Context, mnemonic string, network Network) (*Wallet, error) {
	configURL := "https://ton.org/global.config.json"
	if network == NetworkTestnet {
		configURL = "https://ton.org/testnet-global.config.json"
	}

	// Подключаемся к лайтсерверам
	client := liteclient.NewConnectionPool()
	if err := client.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("failed to connect to lite servers: %w", err)
	}

	api := ton.NewAPIClient(client)

	words := strings.Fields(strings.TrimSpace(mnemonic))
	if len(words) != 24 {
		return nil, fmt.Errorf("invalid mnemonic: expected 24 words, got %d", len(words))
	}

	// V5R1 Final, NetworkGlobalID: -239 для mainnet, -3 для testnet
	networkID := int32(-239)
	if network == NetworkTestnet {
		networkID = -3
	}
	w, err := wallet.FromSeed(api, words, wallet.ConfigV5R1Final{
		NetworkGlobalID: networkID,
		Workchain:       0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet from seed: %w", err)
	}

	return &Wallet{
		client:  api,
		wallet:  w,
		network: network,
		log:     logger.With("component", "ton_wallet", "network", string(network)),
	}, nil
}

// GetAddress возвращает адрес кошелька
func (w *Wallet) GetAddress() string {
	return w.wallet.WalletAddress().String()
}

// GetBalance возвращает баланс кошелька в нанотонах
func (w *Wallet) GetBalance(ctx context.Context) (uint64, error) {
	block, err := w.client.CurrentMasterchainInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get masterchain info: %w", err)
	}

	acc, err := w.client.GetAccount(ctx, block, w.wallet.WalletAddress())
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	// кошелек не задеплоен
	if acc.State == nil {
		return 0, nil
	}

	return acc.State.Balance.Nano().Uint64(), nil
}

// SendTON отправляет amountNano на адрес и ждет попадания в блок.
// comment пишется в тело сообщения, по нему потом ищется повторная отправка
func (w *Wallet) SendTON(ctx context.Context, toAddress string, amountNano uint64, comment string) (*SendResult, error) {
	addr, err := ParseAddress(toAddress)
	if err != nil {
		return nil, err
	}

	balance, err := w.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if balance < amountNano+NetworkFeeNano {
		return nil, fmt.Errorf("insufficient wallet balance: have %d, need %d + fee", balance, amountNano)
	}

	amount := tlb.FromNanoTONU(amountNano)

	var msg *wallet.Message
	if comment != "" {
		msg = &wallet.Message{
			Mode: wallet.PayGasSeparately + wallet.IgnoreErrors,
			InternalMessage: &tlb.InternalMessage{
				IHRDisabled: true,
				Bounce:      false,
				DstAddr:     addr,
				Amount:      amount,
				Body:        buildCommentCell(comment),
			},
		}
	} else {
		msg = wallet.SimpleMessage(addr, amount, nil)
	}

	tx, _, err := w.wallet.SendWaitTransaction(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	txHash := fmt.Sprintf("%x", tx.Hash)
	w.log.Info("ton sent", "to", addr.String(), "nano", amountNano, "tx_hash", txHash)

	return &SendResult{TxHash: txHash}, nil
}

// buildCommentCell создает cell с текстовым комментарием: 32 бита нулей + UTF-8 текст
func buildCommentCell(comment string) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(0, 32).
		MustStoreStringSnake(comment).
		EndCell()
}
