package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("ADMIN_TELEGRAM_IDS", "")

	cfg := Load()
	if cfg.AppPort != "8080" {
		t.Fatalf("ожидался порт 8080, получено %s", cfg.AppPort)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("ожидался TTL 24h, получено %v", cfg.JWTTTL)
	}
	if len(cfg.AdminTelegramIDs) != 0 {
		t.Fatalf("ожидался пустой список админов")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("ADMIN_TELEGRAM_IDS", "111, 222,bad,333")
	t.Setenv("ADMIN_BOT_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.AppPort != "9000" || cfg.JWTTTL != 2*time.Hour || !cfg.AdminBotEnabled {
		t.Fatalf("конфиг прочитан неверно: %+v", cfg)
	}
	if len(cfg.AdminTelegramIDs) != 3 || cfg.AdminTelegramIDs[2] != 333 {
		t.Fatalf("неверные id админов: %v", cfg.AdminTelegramIDs)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("неверные origins: %v", cfg.CORSAllowedOrigins)
	}
}
