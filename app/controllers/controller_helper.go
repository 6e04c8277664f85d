package controllers

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pixelmarket/x402-gateway/app/models"
	"github.com/pixelmarket/x402-gateway/app/repository"
	"github.com/pixelmarket/x402-gateway/internal/pkg/cache"
	"github.com/pixelmarket/x402-gateway/internal/pkg/entitlement"
	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
	"github.com/pixelmarket/x402-gateway/internal/pkg/facilitator"
	"github.com/pixelmarket/x402-gateway/internal/pkg/guardian"
	"github.com/pixelmarket/x402-gateway/internal/pkg/middleware"
	"github.com/pixelmarket/x402-gateway/internal/pkg/proxy"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

// Services bundles the protocol components the route handlers share.
type Services struct {
	Store      entitlement.Store
	Gate       *middleware.PaywallGate
	Settler    *x402.Settler
	Dispatcher *proxy.Dispatcher
	Guardian   *guardian.Client
	Validate   *validator.Validate

	// Repos overrides the global repository factory; tests inject fakes
	// here. Nil falls through to the database-backed repositories.
	Repos *repository.Repositories
}

// repositories resolves the repository set for this service graph.
func (s *Services) repositories() *repository.Repositories {
	if s.Repos != nil {
		return s.Repos
	}
	return repository.GetGlobalFactory().GetRepositories()
}

var (
	services     *Services
	servicesOnce sync.Once
)

// GetServices lazily wires the default service graph. The entitlement
// store is in-memory unless ENTITLEMENT_STORE=redis, which shares state
// across gateway instances through the cache connection.
func GetServices() *Services {
	servicesOnce.Do(func() {
		var store entitlement.Store
		if env.GetEnv("ENTITLEMENT_STORE", "memory") == "redis" {
			store = entitlement.NewRedisStore(cache.GetClient())
		} else {
			store = entitlement.NewMemoryStore()
		}

		issuer := x402.NewIssuerFromEnv()
		services = &Services{
			Store:      store,
			Gate:       middleware.NewPaywallGate(store, issuer),
			Settler:    x402.NewSettler(facilitator.NewClientFromEnv(), store),
			Dispatcher: proxy.NewDispatcher(),
			Guardian:   guardian.NewClientFromEnv(),
			Validate:   validator.New(),
		}
	})
	return services
}

// SetServices replaces the service graph; tests use it to inject fakes.
func SetServices(s *Services) {
	servicesOnce.Do(func() {})
	services = s
}

// callerWallet extracts the caller identity for the audit trail, or
// "unknown" when none was supplied.
func callerWallet(c *fiber.Ctx) string {
	wallet := strings.TrimSpace(c.Get("X-Wallet-Address"))
	if wallet == "" {
		return models.WalletUnknown
	}
	return strings.ToLower(wallet)
}

// wantsHTML reports whether the request looks like a human browser
// navigation rather than a programmatic call.
func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), "text/html")
}
