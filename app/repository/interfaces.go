package repository

import (
	"context"
	"errors"
	"time"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// DonationRepository defines the persistence operations of the donation ledger.
type DonationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Donation, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Donation, error)
	// CreateIfNotExists inserts the donation unless a row with the same
	// external id exists. It reports whether a row was written.
	CreateIfNotExists(ctx context.Context, donation *models.Donation) (bool, error)
	// LinkUser sets linked_user_id when it is empty or already equal to userID.
	LinkUser(ctx context.Context, id uint, userID string) (int64, error)
	LinkUnclaimedByExternalIDs(ctx context.Context, userID string, externalIDs []string) (int64, error)
}

// UserCodeRepository defines lookups on the user linking-code table.
type UserCodeRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserCode, error)
	GetByCode(ctx context.Context, code string) (*models.UserCode, error)
	CreateIfNotExists(ctx context.Context, userCode *models.UserCode) (bool, error)
}

// SubscriptionRepository defines the operations used by the subscription state machine.
type SubscriptionRepository interface {
	ListActiveByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	Cancel(ctx context.Context, id uint, at time.Time) error
	Create(ctx context.Context, sub *models.Subscription) error
	// Transaction runs fn against a repository bound to a single DB transaction.
	Transaction(ctx context.Context, fn func(repo SubscriptionRepository) error) error
}

// WebhookDeliveryRepository stores raw gateway deliveries and their outcome.
type WebhookDeliveryRepository interface {
	// Upsert creates the delivery or bumps the attempt counter of an existing
	// one, and loads the stored row into delivery.
	Upsert(ctx context.Context, delivery *models.WebhookDelivery) error
	MarkProcessed(ctx context.Context, id uint, outcome, processingError string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Donation        DonationRepository
	UserCode        UserCodeRepository
	Subscription    SubscriptionRepository
	WebhookDelivery WebhookDeliveryRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Donation:        NewDonationRepository(db),
		UserCode:        NewUserCodeRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		WebhookDelivery: NewWebhookDeliveryRepository(db),
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
