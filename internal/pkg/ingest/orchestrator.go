// Package ingest turns one authenticated gateway delivery into at most one
// donation, attributing it to a user and opening a subscription when the memo
// carries a linking code and the amount matches a tier.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/archive"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/cache"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ledger"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/memo"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/sepay"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/subscription"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/tiers"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/timezone"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidPayload     = sepay.ErrInvalidPayload
	ErrMalformedTimestamp = timezone.ErrMalformedTimestamp
)

// Outcome of a successful Ingest call.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Outcomes recorded only in counters and the delivery log.
const (
	outcomeUnauthorized = "unauthorized"
	outcomeInvalid      = "invalid"
	outcomeRejected     = "rejected"
	outcomeFailed       = "failed"
	outcomeInProgress   = "in_progress"
)

const (
	defaultLockTTL        = 30 * time.Second
	defaultArchiveTimeout = 3 * time.Second
)

type Result struct {
	Outcome      Outcome
	ExternalID   string
	DonationID   uint
	DonorName    string
	LinkedUserID string
	TierID       string
}

type DonationLedger interface {
	Lookup(ctx context.Context, externalID string) (*models.Donation, error)
	RecordIfNew(ctx context.Context, e ledger.Entry) (ledger.Record, error)
}

type UserLookup interface {
	UserIDFor(ctx context.Context, code string) (string, error)
}

type SubscriptionTransitioner interface {
	Transition(ctx context.Context, in subscription.Input) (*models.Subscription, error)
}

type DeliveryLog interface {
	Record(ctx context.Context, externalID string, payload []byte) (*models.WebhookDelivery, error)
	MarkProcessed(ctx context.Context, deliveryID uint, outcome string, processingErr error) error
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type Counter interface {
	Add(ctx context.Context, outcome string) error
}

// Dependencies wires the orchestrator. Ledger, Users, Subscriptions, Tiers
// and Parser are required; the rest may be nil.
type Dependencies struct {
	Ledger         DonationLedger
	Users          UserLookup
	Subscriptions  SubscriptionTransitioner
	Tiers          *tiers.Table
	Parser         *memo.Parser
	Deliveries     DeliveryLog
	Locker         Locker
	Archiver       archive.Archiver
	Counter        Counter
	LockTTL        time.Duration
	// ArchiveTimeout bounds the best-effort archive upload so a slow bucket
	// cannot hold back the gateway's acknowledgement.
	ArchiveTimeout time.Duration
}

type Orchestrator struct {
	secret string
	deps   Dependencies
}

func NewOrchestrator(secret string, deps Dependencies) *Orchestrator {
	if deps.Archiver == nil {
		deps.Archiver = archive.Noop{}
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = defaultLockTTL
	}
	if deps.ArchiveTimeout <= 0 {
		deps.ArchiveTimeout = defaultArchiveTimeout
	}
	if deps.Parser == nil {
		deps.Parser = memo.NewParser(memo.DefaultCodePrefix, memo.DefaultKeywords)
	}
	if deps.Tiers == nil {
		deps.Tiers = tiers.DefaultTable()
	}
	return &Orchestrator{secret: secret, deps: deps}
}

// Ingest processes one delivery. Redeliveries of an already recorded
// transaction succeed with OutcomeAlreadyProcessed, as does a delivery whose
// lock is held by a concurrent worker (counted as in_progress). Errors are ErrUnauthorized,
// ErrInvalidPayload, ErrMalformedTimestamp or a storage failure.
func (o *Orchestrator) Ingest(ctx context.Context, body []byte, authHeader string) (Result, error) {
	if !sepay.Authorize(authHeader, o.secret) {
		o.count(ctx, outcomeUnauthorized)
		return Result{}, ErrUnauthorized
	}

	hook, err := sepay.Decode(body)
	if err != nil {
		o.count(ctx, outcomeInvalid)
		return Result{}, err
	}
	externalID := hook.ExternalID(body)
	res := Result{ExternalID: externalID}

	if o.deps.Locker != nil {
		release, err := o.deps.Locker.Acquire(ctx, "sepay:"+externalID, o.deps.LockTTL)
		switch {
		case errors.Is(err, cache.ErrLocked):
			// Another worker holds this delivery. If it fails it answers 500
			// and the gateway retries, so acknowledging here loses nothing.
			// No donation exists yet: DonationID stays zero.
			res.Outcome = OutcomeAlreadyProcessed
			o.count(ctx, outcomeInProgress)
			return res, nil
		case err != nil:
			log.Warnf("[Ingest] %s: delivery lock unavailable, continuing without it: %v", externalID, err)
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.Warnf("[Ingest] %s: %v", externalID, err)
				}
			}()
		}
	}

	delivery := o.recordDelivery(ctx, externalID, body)

	existing, err := o.deps.Ledger.Lookup(ctx, externalID)
	if err != nil {
		o.finish(ctx, delivery, outcomeFailed, err)
		return Result{}, err
	}
	if existing != nil {
		res.Outcome = OutcomeAlreadyProcessed
		res.DonationID = existing.ID
		o.finish(ctx, delivery, string(res.Outcome), nil)
		return res, nil
	}

	parsed := o.deps.Parser.Parse(hook.Content)
	res.DonorName = parsed.DonorName

	if parsed.HasLinkingCode() {
		userID, err := o.deps.Users.UserIDFor(ctx, parsed.LinkingCode)
		if err != nil {
			log.Warnf("[Ingest] %s: could not resolve linking code %s: %v", externalID, parsed.LinkingCode, err)
		} else {
			res.LinkedUserID = userID
		}
	}

	occurredAt, err := timezone.Normalize(hook.TransactionDate)
	if err != nil {
		o.finish(ctx, delivery, outcomeRejected, err)
		return Result{}, err
	}

	rec, err := o.deps.Ledger.RecordIfNew(ctx, ledger.Entry{
		ExternalID:      externalID,
		Amount:          hook.TransferAmount,
		MemoText:        hook.Content,
		DonorName:       parsed.DonorName,
		BankAccount:     hook.AccountNumber,
		BankLabel:       hook.Gateway,
		TransactionDate: hook.TransactionDate,
		OccurredAt:      occurredAt,
		LinkedUserID:    res.LinkedUserID,
		Metadata:        hook.Metadata(),
	})
	if err != nil {
		o.finish(ctx, delivery, outcomeFailed, err)
		return Result{}, fmt.Errorf("record donation: %w", err)
	}
	res.DonationID = rec.DonationID
	if !rec.Created {
		// Lost the insert race to a concurrent delivery.
		res.Outcome = OutcomeAlreadyProcessed
		o.finish(ctx, delivery, string(res.Outcome), nil)
		return res, nil
	}

	if res.LinkedUserID != "" {
		res.TierID = o.openSubscription(ctx, res, hook.TransferAmount, occurredAt)
	}

	o.archive(ctx, externalID, occurredAt, body)

	res.Outcome = OutcomeAccepted
	o.finish(ctx, delivery, string(res.Outcome), nil)
	log.Infof("[Ingest] %s: recorded donation %d of %d from %q", externalID, res.DonationID, hook.TransferAmount, res.DonorName)
	return res, nil
}

// openSubscription never fails the delivery; the donation is already stored.
func (o *Orchestrator) openSubscription(ctx context.Context, res Result, amount int64, occurredAt time.Time) string {
	tier, ok := o.deps.Tiers.Match(amount)
	if !ok {
		return ""
	}
	_, err := o.deps.Subscriptions.Transition(ctx, subscription.Input{
		UserID:     res.LinkedUserID,
		Tier:       tier,
		DonationID: res.DonationID,
		ExternalID: res.ExternalID,
		OccurredAt: occurredAt,
	})
	if err != nil {
		log.Errorf("[Ingest] %s: subscription transition to %s for user %s failed: %v", res.ExternalID, tier.ID, res.LinkedUserID, err)
		return ""
	}
	return tier.ID
}

func (o *Orchestrator) archive(ctx context.Context, externalID string, occurredAt time.Time, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, o.deps.ArchiveTimeout)
	defer cancel()
	if err := o.deps.Archiver.Put(ctx, externalID, occurredAt, body); err != nil {
		log.Warnf("[Ingest] %s: archive failed: %v", externalID, err)
	}
}

func (o *Orchestrator) recordDelivery(ctx context.Context, externalID string, body []byte) *models.WebhookDelivery {
	if o.deps.Deliveries == nil {
		return nil
	}
	delivery, err := o.deps.Deliveries.Record(ctx, externalID, body)
	if err != nil {
		log.Warnf("[Ingest] %s: %v", externalID, err)
		return nil
	}
	return delivery
}

func (o *Orchestrator) finish(ctx context.Context, delivery *models.WebhookDelivery, outcome string, processingErr error) {
	o.count(ctx, outcome)
	if delivery == nil {
		return
	}
	if err := o.deps.Deliveries.MarkProcessed(ctx, delivery.ID, outcome, processingErr); err != nil {
		log.Warnf("[Ingest] %s: mark delivery processed: %v", delivery.ExternalID, err)
	}
}

func (o *Orchestrator) count(ctx context.Context, outcome string) {
	if o.deps.Counter == nil {
		return
	}
	if err := o.deps.Counter.Add(ctx, outcome); err != nil {
		log.Warnf("[Ingest] counter %s: %v", outcome, err)
	}
}
