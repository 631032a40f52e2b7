package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/utnautiub/nuoi-buituantu/app/controllers"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/middleware"
)

const (
	apiRateLimit  = 120
	apiRateWindow = time.Minute
	webhookPrefix = "/api/webhook/"
)

type ApiRouter struct {
	svc Services
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        apiRateLimit,
		Expiration: apiRateWindow,
		Storage:    h.svc.LimiterStorage,
		// the gateway calls from a handful of IPs and does not retry a 429
		Next:       isGatewayCallback,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})
	api.Get("/health", controllers.HandleHealth)

	// gateway callbacks
	webhook := api.Group("/webhook")
	webhook.Post("/sepay", h.svc.Webhook.HandleSePayWebhook)
	webhook.Get("/sepay", h.svc.Webhook.HandleSePayProbe)

	// API v1 routes, called by the website backend
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware(h.svc.AdminAPIKey))
	v1.Get("/users/:userId/code", h.svc.Admin.HandleGetUserCode)
	v1.Get("/users/:userId/subscription", h.svc.Admin.HandleGetSubscription)
	v1.Get("/codes/:code", h.svc.Admin.HandleResolveCode)
	v1.Post("/donations/claim", h.svc.Admin.HandleClaimDonations)
	v1.Post("/donations/:id/claim", h.svc.Admin.HandleClaimDonation)
	v1.Get("/stats/ingest", h.svc.Admin.HandleIngestStats)
}

func isGatewayCallback(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), webhookPrefix)
}

func NewApiRouter(svc Services) *ApiRouter {
	return &ApiRouter{svc: svc}
}
