package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleHealth reports liveness for load balancers and uptime checks.
// The guardian field is advisory; the gateway is healthy either way.
func HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	guardianStatus := "unreachable"
	if GetServices().Guardian.Healthy(ctx) {
		guardianStatus = "healthy"
	}

	return c.JSON(fiber.Map{
		"ok":        true,
		"status":    "healthy",
		"guardian":  guardianStatus,
		"timestamp": time.Now().UnixMilli(),
	})
}
