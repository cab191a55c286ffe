package service

import "errors"

var (
	ErrInsufficientFunds = errors.New("недостаточно средств")
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrInvalidAmount     = errors.New("неверная сумма")

	ErrInvalidWalletAddress = errors.New("неверный адрес кошелька")
	ErrInvalidCurrency      = errors.New("не указана валюта")

	ErrWithdrawalNotFound = errors.New("заявка не найдена")
	ErrInvalidTransition  = errors.New("заявка уже в другом статусе")
	ErrPayoutFailed       = errors.New("выплата не прошла")

	ErrNoVIP         = errors.New("нужен VIP уровень")
	ErrClaimTooEarly = errors.New("награда еще недоступна")

	ErrInvalidLevel = errors.New("неверный VIP уровень")

	ErrInvalidSetting = errors.New("неверное значение настройки")
	ErrUnknownSetting = errors.New("неизвестная настройка")
)
