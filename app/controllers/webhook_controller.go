package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ingest"
)

const webhookTimeout = 15 * time.Second

// Ingester processes one raw gateway delivery.
type Ingester interface {
	Ingest(ctx context.Context, body []byte, authHeader string) (ingest.Result, error)
}

type WebhookController struct {
	ingester Ingester
}

func NewWebhookController(ingester Ingester) *WebhookController {
	return &WebhookController{ingester: ingester}
}

// HandleSePayWebhook answers 201 for accepted and redelivered transactions
// alike, so the gateway stops retrying either way.
func (wc *WebhookController) HandleSePayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	res, err := wc.ingester.Ingest(ctx, rawBody, c.Get(fiber.HeaderAuthorization))
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":   true,
			"duplicate": res.Outcome == ingest.OutcomeAlreadyProcessed,
		})
	case errors.Is(err, ingest.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "unauthorized"})
	case errors.Is(err, ingest.ErrInvalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid_payload"})
	case errors.Is(err, ingest.ErrMalformedTimestamp):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "malformed_transaction_date"})
	default:
		log.Errorf("sepay webhook failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal_server_error"})
	}
}

// HandleSePayProbe lets the gateway dashboard check that the endpoint is reachable.
func (wc *WebhookController) HandleSePayProbe(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "SePay webhook endpoint is ready",
	})
}

func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
