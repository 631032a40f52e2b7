package repository

import (
	"context"
	"time"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookDeliveryRepository struct {
	db *gorm.DB
}

// NewWebhookDeliveryRepository creates a new webhook delivery repository instance
func NewWebhookDeliveryRepository(db *gorm.DB) WebhookDeliveryRepository {
	return &webhookDeliveryRepository{db: db}
}

func (r *webhookDeliveryRepository) Upsert(ctx context.Context, delivery *models.WebhookDelivery) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "external_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempts":     gorm.Expr("attempts + 1"),
			"payload_json": delivery.PayloadJSON,
			"updated_at":   time.Now(),
		}),
	}).Create(delivery).Error; err != nil {
		return err
	}

	// Ensure ID and attempt count reflect the stored row after upsert.
	var stored models.WebhookDelivery
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", delivery.Provider, delivery.ExternalID).
		First(&stored).Error; err != nil {
		return err
	}
	*delivery = stored
	return nil
}

func (r *webhookDeliveryRepository) MarkProcessed(ctx context.Context, id uint, outcome, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"outcome":          outcome,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.WebhookDelivery{}).Where("id = ?", id).Updates(updates).Error
}
