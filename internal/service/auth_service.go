package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail      = errors.New("email уже зарегистрирован")
	ErrInvalidCredentials  = errors.New("неверный email или пароль")
	ErrInvalidToken        = errors.New("неверный токен")
	ErrInvalidTelegramData = errors.New("неверные данные telegram")
	ErrWeakPassword        = errors.New("пароль должен быть не короче 8 символов")
)

// Claims - полезная нагрузка JWT
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"adm"`
}

// регистрация, вход и проверка токенов
type AuthService struct {
	profiles ProfileStore
	secret   []byte
	ttl      time.Duration
	botToken string
	now      func() time.Time
}

func NewAuthService(profiles ProfileStore, secret string, ttl time.Duration, botToken string) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		profiles: profiles,
		secret:   []byte(secret),
		ttl:      ttl,
		botToken: botToken,
		now:      time.Now,
	}
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// Register создает профиль. Неизвестный реферальный код игнорируется
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", ErrInvalidCredentials
	}
	if len(req.Password) < 8 {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	p := &domain.Profile{
		Email:        email,
		PasswordHash: string(hash),
		Username:     strings.TrimSpace(req.Username),
		ReferralCode: repository.GenerateReferralCode(),
	}
	if p.Username == "" {
		p.Username = strings.SplitN(email, "@", 2)[0]
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := s.profiles.GetByReferralCode(ctx, code)
		if err != nil {
			return nil, "", err
		}
		if referrer != nil {
			p.ReferredBy = &referrer.ID
		}
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", err
	}

	token, err := s.IssueToken(p)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Profile, string, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if p == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(p)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

func (s *AuthService) IssueToken(p *domain.Profile) (string, error) {
	now := s.now()
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Admin: p.IsAdmin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// ValidateToken возвращает id пользователя и флаг админа
func (s *AuthService) ValidateToken(token string) (int64, bool, error) {
	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, false, ErrInvalidToken
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return 0, false, ErrInvalidToken
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, ErrInvalidToken
	}
	return id, c.Admin, nil
}

// Profile - профиль текущего пользователя
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	return p, nil
}

// LinkTelegram привязывает telegram аккаунт по initData из WebApp,
// после этого пользователю приходят уведомления о выводах
func (s *AuthService) LinkTelegram(ctx context.Context, userID int64, initData string) (int64, error) {
	values, ok := ValidateTelegramInitData(initData, s.botToken)
	if !ok {
		return 0, ErrInvalidTelegramData
	}

	var tgUser struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &tgUser); err != nil || tgUser.ID == 0 {
		return 0, ErrInvalidTelegramData
	}

	if err := s.profiles.SetTelegramID(ctx, userID, tgUser.ID); err != nil {
		return 0, err
	}
	return tgUser.ID, nil
}
