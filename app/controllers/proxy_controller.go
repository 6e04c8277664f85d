package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pixelmarket/x402-gateway/app/models"
	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

const defaultPaywallPageURL = "http://localhost:3000"

// HandleProxy is the paywall-gated reverse proxy. Once the gate allows
// the request it is forwarded to the listing's origin with sanitized
// headers, and the origin's status and body are relayed verbatim.
func HandleProxy(c *fiber.Ctx) error {
	listing, res, ok := resolveActiveListing(c)
	if !ok {
		return res
	}

	// A human browser with no entitlement gets sent to the payment page
	// instead of a raw protocol challenge. UX branch only; the gate
	// below stays the security boundary.
	if wantsHTML(c) && strings.TrimSpace(c.Get(x402.HeaderPaymentID)) == "" {
		page := strings.TrimRight(env.GetEnv("PAYWALL_PAGE_URL", defaultPaywallPageURL), "/")
		return c.Redirect(page+"/apis/"+listing.ID, fiber.StatusFound)
	}

	svc := GetServices()
	wallet := callerWallet(c)
	if wallet != models.WalletUnknown && svc.Guardian.ShouldBlock(c.UserContext(), wallet) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "budget_paused"})
	}

	allowed, err := svc.Gate.Evaluate(c, challengeParamsFor(listing, "/api/proxy/"+listing.ID))
	if err != nil || !allowed {
		return err
	}

	targetURL := buildTargetURL(listing.BaseURL, c.Params("*"), string(c.Request().URI().QueryString()))

	inbound := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		inbound.Add(string(key), string(value))
	})

	var jsonBody []byte
	if len(c.Body()) > 0 {
		jsonBody = c.Body()
	}

	result, err := svc.Dispatcher.Forward(c.UserContext(), c.Method(), targetURL, inbound, jsonBody)
	if err != nil {
		log.Printf("proxy to %s failed: %v", targetURL, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"ok":        false,
			"error":     "Failed to proxy API call",
			"details":   err.Error(),
			"targetUrl": targetURL,
		})
	}

	for name, values := range result.Header {
		for _, v := range values {
			c.Response().Header.Add(name, v)
		}
	}
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = "*"
	}
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")

	recordPaidCall(listing, wallet)
	return c.Status(result.StatusCode).Send(result.Body)
}

// buildTargetURL joins the listing's base URL with the requested
// subpath and query string. An empty subpath hits the base URL itself.
func buildTargetURL(baseURL, subpath, query string) string {
	target := strings.TrimRight(baseURL, "/")
	if subpath != "" {
		target += "/" + strings.TrimLeft(subpath, "/")
	}
	if query != "" {
		target += "?" + query
	}
	return target
}
