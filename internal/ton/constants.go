package ton

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// наименьшая единица TON (1 TON = 10^9 наноTON)
	NanoTON = 1_000_000_000

	// запас на комиссию сети при отправке (0.01 TON)
	NetworkFeeNano = 10_000_000
)

// представляет тип сети TON
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// ParseNetwork - всё кроме testnet считается mainnet
func ParseNetwork(s string) Network {
	if s == string(NetworkTestnet) {
		return NetworkTestnet
	}
	return NetworkMainnet
}

// конечные точки TON API
const (
	TonAPIMainnet = "https://tonapi.io/v2"
	TonAPITestnet = "https://testnet.tonapi.io/v2"
)

var ErrInvalidRate = errors.New("курс TON не задан")

// USDToNano переводит сумму в долларах в наноTON по курсу (сколько USD за 1 TON)
func USDToNano(usd, usdPerTON decimal.Decimal) (uint64, error) {
	if !usdPerTON.IsPositive() {
		return 0, ErrInvalidRate
	}
	nano := usd.Div(usdPerTON).Mul(decimal.NewFromInt(NanoTON)).Floor()
	if !nano.IsPositive() {
		return 0, errors.New("сумма слишком мала")
	}
	return uint64(nano.IntPart()), nil
}

// конвертирует наноTON в TON
func NanoToTON(nano uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(nano)).Div(decimal.NewFromInt(NanoTON))
}
