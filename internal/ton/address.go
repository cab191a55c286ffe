package ton

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ParseAddress понимает raw (0:hex, -1:hex) и user-friendly (EQ.../UQ...) форматы
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0:") || strings.HasPrefix(s, "-1:") {
		return parseRawAddress(s)
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

// ValidateAddress проверяет, что адрес разбирается
func ValidateAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// NormalizeAddress приводит адрес к raw формату для сравнения
func NormalizeAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%s", addr.Workchain(), hex.EncodeToString(addr.Data())), nil
}

// parseRawAddress парсит raw адрес формата "0:hex" или "-1:hex" и создаёт Address
func parseRawAddress(rawAddr string) (*address.Address, error) {
	var workchain int32
	var hashHex string

	if strings.HasPrefix(rawAddr, "0:") {
		workchain = 0
		hashHex = rawAddr[2:]
	} else if strings.HasPrefix(rawAddr, "-1:") {
		workchain = -1
		hashHex = rawAddr[3:]
	} else {
		return nil, fmt.Errorf("unknown raw address format: %s", rawAddr)
	}

	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex in address: %w", err)
	}

	if len(hashBytes) != 32 {
		return nil, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(hashBytes))
	}

	return address.NewAddress(0, byte(workchain), hashBytes), nil
}
