package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/utnautiub/nuoi-buituantu/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Services carries the handlers and settings the routes are built from.
// LimiterStorage may be nil, in which case the limiter keeps state in memory.
type Services struct {
	Webhook        *controllers.WebhookController
	Admin          *controllers.AdminAPIController
	AdminAPIKey    string
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, svc Services) {
	setup(app, NewApiRouter(svc))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
