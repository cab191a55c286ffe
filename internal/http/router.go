package http

import (
	"vipclub_backend/internal/http/handlers"
	"vipclub_backend/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Deps - всё, что нужно для регистрации маршрутов
type Deps struct {
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter

	Withdrawals *handlers.WithdrawalHandler
	Admin       *handlers.AdminHandler
	Claims      *handlers.ClaimHandler
	Referrals   *handlers.ReferralHandler
	Profile     *handlers.ProfileHandler
	Deposits    *handlers.DepositHandler
	VIP         *handlers.UpgradeHandler

	// WS может быть nil
	WS gin.HandlerFunc
}

// RegisterRoutes вешает API на r
func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	limit := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware()
	}

	// публичные
	api.POST("/auth/register", limit, d.Profile.Register)
	api.POST("/auth/login", limit, d.Profile.Login)
	api.POST("/webhooks/payments", d.Deposits.PaymentWebhook)
	api.GET("/vip/levels", d.VIP.GetLevels)

	user := api.Group("")
	user.Use(middleware.Auth(d.Tokens))
	{
		user.GET("/me", d.Profile.Me)
		user.POST("/me/telegram", limit, d.Profile.LinkTelegram)
		user.GET("/transactions", d.Profile.Transactions)

		user.GET("/withdrawals/eligibility", d.Withdrawals.Eligibility)
		user.GET("/withdrawals", d.Withdrawals.List)
		user.POST("/withdrawals", limit, d.Withdrawals.Create)

		user.GET("/claims/daily", d.Claims.Status)
		user.POST("/claims/daily", limit, d.Claims.Claim)

		user.GET("/referrals", d.Referrals.GetMyReferrals)
		user.GET("/referrals/commissions", d.Referrals.GetCommissions)

		user.POST("/vip/upgrade", limit, d.VIP.Upgrade)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Auth(d.Tokens), middleware.AdminOnly())
	{
		admin.GET("/withdrawals", d.Admin.ListWithdrawals)
		admin.POST("/withdrawals/settle", d.Admin.Settle)
		admin.GET("/settings", d.Admin.GetSettings)
		admin.PUT("/settings", d.Admin.UpdateSettings)
		admin.GET("/activity", d.Admin.Activity)
	}

	if d.WS != nil {
		r.GET("/ws", d.WS)
	}
}
