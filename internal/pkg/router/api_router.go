package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/pixelmarket/x402-gateway/app/controllers"
	"github.com/pixelmarket/x402-gateway/internal/pkg/cache"
	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))

	// Marketplace listing registry
	api.Get("/marketplace", controllers.HandleListAPIs)
	api.Get("/marketplace/:id", controllers.HandleGetAPI)
	api.Post("/marketplace", controllers.HandleCreateAPI)
	api.Put("/marketplace/:id", controllers.HandleUpdateAPI)
	api.Delete("/marketplace/:id", controllers.HandleDeleteAPI)

	// Payment settlement
	api.Post("/pay", controllers.HandlePay)

	// Paywall-gated entry points
	api.Post("/execute/:id", controllers.HandleExecute)
	api.All("/proxy/:id", controllers.HandleProxy)
	api.All("/proxy/:id/*", controllers.HandleProxy)

	// Subscriptions and audit trail
	api.Post("/subscriptions", controllers.HandleSubscribe)
	api.Get("/subscriptions/:wallet", controllers.HandleListSubscriptions)
	api.Delete("/subscriptions", controllers.HandleUnsubscribe)
	api.Get("/transactions/wallet/:wallet", controllers.HandleListWalletTransactions)
	api.Get("/transactions/:apiId", controllers.HandleListTransactions)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// newLimiterStorage backs the rate limiter with the shared Redis
// connection so limits hold across gateway instances. Database 1 keeps
// limiter keys apart from the cache and entitlements on DB 0.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
