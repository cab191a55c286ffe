package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vipclub_backend/internal/bot"
	"vipclub_backend/internal/config"
	"vipclub_backend/internal/db"
	httpServer "vipclub_backend/internal/http"
	"vipclub_backend/internal/http/handlers"
	"vipclub_backend/internal/http/middleware"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/notify"
	"vipclub_backend/internal/payout"
	"vipclub_backend/internal/repository"
	"vipclub_backend/internal/service"
	"vipclub_backend/internal/ton"
	"vipclub_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
)

// Version устанавливается при сборке
var Version = "dev"

const (
	stuckCheckInterval = 5 * time.Minute
	stuckMaxAge        = 30 * time.Minute
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat == "json")
	log := logger.Get()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		logger.Fatal("migrate failed", "error", err)
	}

	// репозитории
	profiles := repository.NewProfileRepository(dbPool)
	withdrawals := repository.NewWithdrawalRepository(dbPool)
	ledger := repository.NewTransactionRepository(dbPool)
	claims := repository.NewClaimRepository(dbPool)
	activityRepo := repository.NewActivityRepository(dbPool)
	settingsRepo := repository.NewSettingsRepository(dbPool)
	stats := repository.NewStatsRepository(dbPool)
	referrals := repository.NewReferralRepository(dbPool)
	deposits := repository.NewDepositRepository(dbPool)

	// сервисы
	activitySvc := service.NewActivityService(activityRepo)
	settingsSvc := service.NewSettingsService(settingsRepo, activitySvc)
	balanceSvc := service.NewBalanceService(profiles, ledger)
	authSvc := service.NewAuthService(profiles, cfg.JWTSecret, cfg.JWTTTL, cfg.BotToken)
	withdrawalSvc := service.NewWithdrawalService(dbPool, profiles, withdrawals, ledger, settingsSvc)
	settlementSvc := service.NewSettlementService(dbPool, withdrawals, ledger, balanceSvc, activitySvc, buildPayout(ctx, cfg))
	claimSvc := service.NewClaimService(dbPool, profiles, claims, ledger, stats)
	depositSvc := service.NewDepositService(dbPool, profiles, deposits, referrals, balanceSvc, cfg.PaymentIPNSecret)
	vipSvc := service.NewVIPService(dbPool, profiles, ledger)
	referralSvc := service.NewReferralService(profiles, referrals)

	// события в websocket владельцу
	hub := ws.NewHub()
	withdrawalSvc.SetPublisher(hub)
	settlementSvc.SetPublisher(hub)
	claimSvc.SetPublisher(hub)
	depositSvc.SetPublisher(hub)
	vipSvc.SetPublisher(hub)

	stuckWatcher := service.NewStuckWatcher(withdrawals, stuckCheckInterval, stuckMaxAge)

	// админ бот и очередь уведомлений
	var (
		adminBot    *bot.AdminBot
		riverClient *river.Client[pgx.Tx]
		notifier    service.Notifier = notify.LogNotifier{}
	)
	if cfg.AdminBotEnabled && len(cfg.AdminTelegramIDs) > 0 {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.BotToken, settlementSvc, profiles, cfg.AdminTelegramIDs)
		if err != nil {
			log.Error("failed to start admin bot", "error", err)
		} else {
			riverClient, err = startRiver(ctx, dbPool, notify.NewWithdrawalNotifyWorker(withdrawals, profiles, adminBot))
			if err != nil {
				log.Error("failed to start notification queue, notifications go to log", "error", err)
			} else {
				notifier = notify.NewQueueNotifier(notify.RiverInsert(riverClient))
			}

			go adminBot.Start()
			stuckWatcher.SetNotifyCallback(adminBot.NotifyStuck)
			log.Info("admin bot started", "admin_ids", cfg.AdminTelegramIDs)
		}
	} else {
		log.Warn("admin bot disabled, withdrawal notifications go to log only")
	}
	withdrawalSvc.SetNotifier(notifier)
	settlementSvc.SetNotifier(notifier)

	go stuckWatcher.Start()

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	redisClient := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient == nil {
		log.Warn("REDIS_ADDR not set, rate limit counters are kept in memory")
	}

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Tokens:      authSvc,
		RateLimiter: middleware.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute),
		Withdrawals: handlers.NewWithdrawalHandler(withdrawalSvc),
		Admin:       handlers.NewAdminHandler(settlementSvc, settingsSvc, activitySvc),
		Claims:      handlers.NewClaimHandler(claimSvc),
		Referrals:   handlers.NewReferralHandler(referralSvc),
		Profile:     handlers.NewProfileHandler(authSvc, balanceSvc),
		Deposits:    handlers.NewDepositHandler(depositSvc),
		VIP:         handlers.NewUpgradeHandler(vipSvc),
		WS:          ws.NewWSHandler(hub, authSvc, cfg.CORSAllowedOrigins).HandleWS(),
	})

	// CORS для фронта на другом домене
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	if adminBot != nil {
		adminBot.Stop()
	}
	stuckWatcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if riverClient != nil {
		if err := riverClient.Stop(shutdownCtx); err != nil {
			log.Error("notification queue stop failed", "error", err)
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info("server exited")
}

// buildPayout: TON через кошелек платформы, остальные валюты через платежный шлюз
func buildPayout(ctx context.Context, cfg *config.Config) payout.Provider {
	log := logger.Get()

	var fallback payout.Provider
	if cfg.PayoutAPIURL != "" {
		fallback = payout.NewGatewayClient(cfg.PayoutAPIURL, cfg.PayoutAPIKey)
	} else {
		log.Warn("PAYOUT_API_URL not set, approvals fail for non-TON currencies")
	}
	router := payout.NewRouter(fallback)

	if cfg.TonWalletMnemonic == "" {
		log.Warn("TON_WALLET_MNEMONIC not set, TON payouts disabled")
		return router
	}

	rate, err := decimal.NewFromString(cfg.TonUSDRate)
	if err != nil || !rate.IsPositive() {
		log.Error("TON_USD_RATE must be a positive number, TON payouts disabled", "value", cfg.TonUSDRate)
		return router
	}

	network := ton.ParseNetwork(cfg.TonNetwork)
	wallet, err := ton.NewWallet(ctx, cfg.TonWalletMnemonic, network)
	if err != nil {
		log.Error("failed to init TON wallet, TON payouts disabled", "error", err)
		return router
	}
	router.Handle("TON", payout.NewTonProvider(wallet, ton.NewClient(network, cfg.TonAPIKey), rate))
	log.Info("TON payouts enabled", "address", wallet.GetAddress(), "network", network)

	return router
}

// startRiver накатывает миграции river и запускает воркер уведомлений
func startRiver(ctx context.Context, pool *pgxpool.Pool, worker *notify.WithdrawalNotifyWorker) (*river.Client[pgx.Tx], error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, err
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, worker); err != nil {
		return nil, err
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
