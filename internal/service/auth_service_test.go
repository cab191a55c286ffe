package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"vipclub_backend/internal/domain"
)

func TestRegisterLoginAndToken(t *testing.T) {
	db := newMemDB()
	svc := NewAuthService(memProfiles{db}, "secret", time.Hour, "")
	referrer := db.addProfile(&domain.Profile{Email: "ref@example.com", ReferralCode: "REFCODE1"})

	p, token, err := svc.Register(context.Background(), RegisterRequest{
		Email:        " New@Example.com ",
		Password:     "password123",
		ReferralCode: "REFCODE1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Email != "new@example.com" || p.Username != "new" || p.ReferralCode == "" {
		t.Fatalf("profile = %+v", p)
	}
	if p.ReferredBy == nil || *p.ReferredBy != referrer.ID {
		t.Fatal("referrer not linked")
	}

	id, admin, err := svc.ValidateToken(token)
	if err != nil || id != p.ID || admin {
		t.Fatalf("ValidateToken = %d, %v, %v", id, admin, err)
	}

	if _, _, err := svc.Register(context.Background(), RegisterRequest{Email: "new@example.com", Password: "password123"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "new@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "new@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
}

func TestRegister_RejectsWeakInput(t *testing.T) {
	svc := NewAuthService(memProfiles{newMemDB()}, "secret", time.Hour, "")
	if _, _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), RegisterRequest{Email: "nope", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad email: %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewAuthService(memProfiles{newMemDB()}, "secret", time.Hour, "")
	svc.now = fixedClock(inWindow)
	token, err := svc.IssueToken(&domain.Profile{ID: 7, IsAdmin: true})
	if err != nil {
		t.Fatal(err)
	}

	if id, admin, err := svc.ValidateToken(token); err != nil || id != 7 || !admin {
		t.Fatalf("fresh token = %d, %v, %v", id, admin, err)
	}

	svc.now = fixedClock(inWindow.Add(2 * time.Hour))
	if _, _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: %v", err)
	}

	other := NewAuthService(nil, "other-secret", time.Hour, "")
	other.now = fixedClock(inWindow)
	if _, _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token: %v", err)
	}
}

func TestLinkTelegram(t *testing.T) {
	db := newMemDB()
	svc := NewAuthService(memProfiles{db}, "secret", time.Hour, "bot-token")
	user := db.addProfile(&domain.Profile{Email: "u@example.com"})

	initData := buildInitData(t, "bot-token", map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      `{"id":424242,"username":"u"}`,
	})
	tgID, err := svc.LinkTelegram(context.Background(), user.ID, initData)
	if err != nil || tgID != 424242 {
		t.Fatalf("LinkTelegram = %d, %v", tgID, err)
	}
	if p := db.profiles[user.ID]; p.TelegramID == nil || *p.TelegramID != 424242 {
		t.Fatal("telegram id not stored")
	}

	if _, err := svc.LinkTelegram(context.Background(), user.ID, initData+"&x=1"); !errors.Is(err, ErrInvalidTelegramData) {
		t.Fatalf("tampered: %v", err)
	}
}
