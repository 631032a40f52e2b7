package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ledger"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/subscription"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/usercode"
)

const adminTimeout = 10 * time.Second

type CodeService interface {
	CodeFor(ctx context.Context, userID string) (string, error)
	UserIDFor(ctx context.Context, code string) (string, error)
}

type CodeNormalizer interface {
	NormalizeCode(code string) (string, bool)
}

type DonationClaimer interface {
	Claim(ctx context.Context, donationID uint, userID string) (*models.Donation, error)
	ClaimByExternalIDs(ctx context.Context, userID string, externalIDs []string) (int64, error)
}

type SubscriptionReader interface {
	Current(ctx context.Context, userID string) (*models.Subscription, error)
}

type StatsReader interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// AdminAPIController serves the key-protected /api/v1 endpoints used by the
// website backend. Stats may be nil when no cache is configured.
type AdminAPIController struct {
	codes      CodeService
	normalizer CodeNormalizer
	donations  DonationClaimer
	subs       SubscriptionReader
	stats      StatsReader
	now        func() time.Time
}

func NewAdminAPIController(codes CodeService, normalizer CodeNormalizer, donations DonationClaimer, subs SubscriptionReader, stats StatsReader) *AdminAPIController {
	return &AdminAPIController{
		codes:      codes,
		normalizer: normalizer,
		donations:  donations,
		subs:       subs,
		stats:      stats,
		now:        time.Now,
	}
}

func (ac *AdminAPIController) HandleGetUserCode(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	code, err := ac.codes.CodeFor(ctx, userID)
	if err != nil {
		if errors.Is(err, usercode.ErrEmptyUserID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "userId is required"})
		}
		log.Errorf("code for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"user_id": userID, "code": code})
}

func (ac *AdminAPIController) HandleResolveCode(c *fiber.Ctx) error {
	code, ok := ac.normalizer.NormalizeCode(c.Params("code"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "malformed code"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	userID, err := ac.codes.UserIDFor(ctx, code)
	if err != nil {
		if errors.Is(err, usercode.ErrUnknownCode) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "unknown code"})
		}
		log.Errorf("resolve code %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"code": code, "user_id": userID})
}

func (ac *AdminAPIController) HandleGetSubscription(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	sub, err := ac.subs.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, subscription.ErrNoSubscription) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "no active subscription"})
		}
		log.Errorf("subscription for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	now := ac.now()
	return c.JSON(fiber.Map{
		"subscription":      sub,
		"expired":           sub.Expired(now),
		"days_until_expiry": sub.DaysUntilExpiry(now),
	})
}

type claimRequest struct {
	UserID      string   `json:"user_id"`
	ExternalIDs []string `json:"transaction_ids"`
}

func (ac *AdminAPIController) HandleClaimDonation(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid donation id"})
	}
	var req claimRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "user_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	donation, err := ac.donations.Claim(ctx, uint(id), strings.TrimSpace(req.UserID))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	case errors.Is(err, ledger.ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_claimed"})
	case err != nil:
		log.Errorf("claim donation %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "donation": donation})
}

func (ac *AdminAPIController) HandleClaimDonations(c *fiber.Ctx) error {
	var req claimRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "user_id is required"})
	}
	if len(req.ExternalIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "transaction_ids is required"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	n, err := ac.donations.ClaimByExternalIDs(ctx, strings.TrimSpace(req.UserID), req.ExternalIDs)
	if err != nil {
		log.Errorf("bulk claim for user %s: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "linked": n})
}

func (ac *AdminAPIController) HandleIngestStats(c *fiber.Ctx) error {
	if ac.stats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "unavailable", "message": "cache not configured"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), adminTimeout)
	defer cancel()

	counts, err := ac.stats.Snapshot(ctx)
	if err != nil {
		log.Errorf("ingest stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"outcomes": counts})
}
