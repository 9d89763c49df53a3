package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"station-billing-backend/internal/mw"
	"station-billing-backend/internal/session"
	"station-billing-backend/internal/store"
)

// RouterConfig carries the tunables for middleware.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, sessions *session.Manager, webpushOptions *webpush.Options, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, sessions, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Responses cached only where the payload is static; live session state
	// and the ledger are always served fresh.
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/stations", handler.ListStations)
		api.POST("/stations", handler.AddStation)
		api.PUT("/stations/:id/name", handler.RenameStation)
		api.PUT("/stations/:id/settings", handler.UpdateSettings)
		api.POST("/stations/:id/start", handler.StartSession)
		api.POST("/stations/:id/stop", handler.StopSession)

		api.GET("/ledger", handler.ListLedger)
		api.GET("/ledger/total", handler.TotalRevenue)
		api.DELETE("/ledger/:id", handler.DeleteRecord)
		api.DELETE("/ledger", handler.ResetLedger)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", caching, handler.GetVAPIDPublicKey)
	}

	return r
}
