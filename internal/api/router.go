package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"cafeteria-backend/internal/mw"
	"cafeteria-backend/internal/store"
)

// RouterOptions carries the tunables the router needs.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	ReportCacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, notifier Dispatcher, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, notifier)

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)

	cacheStore := cache.New(opts.ReportCacheTTL, 2*opts.ReportCacheTTL)
	caching := mw.Cache(cacheStore, opts.ReportCacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// The VAPID public key is needed before a client can identify itself.
	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	authed := api.Group("")
	authed.Use(mw.RequireOrganization())
	{
		authed.POST("/packages", handler.CreatePackage)
		authed.GET("/packages", handler.ListPackages)
		authed.GET("/packages/:id", handler.GetPackage)
		authed.DELETE("/packages/:id", handler.DeletePackage)
		authed.POST("/packages/:id/renew", handler.RenewPackage)
		authed.POST("/packages/:id/deactivate", handler.DeactivatePackage)
		authed.POST("/packages/:id/reactivate", handler.ReactivatePackage)
		authed.POST("/packages/:id/deposit", handler.Deposit)
		authed.POST("/packages/:id/consume", handler.Consume)
		authed.GET("/packages/:id/history", handler.GetPackageHistory)
		authed.GET("/packages/:id/transactions", handler.GetPackageTransactions)

		authed.GET("/meal-status", caching, handler.MealStatusReport)
		authed.POST("/meal-status/confirm", handler.ManualConfirm)

		authed.POST("/tokens", handler.IssueToken)
		authed.POST("/tokens/:id/collect", handler.CollectToken)
		authed.POST("/tokens/:id/cancel", handler.CancelToken)
		authed.GET("/tokens/search", handler.SearchToken)

		authed.GET("/members", handler.ListMembers)
		authed.GET("/members/:id", handler.GetMember)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
