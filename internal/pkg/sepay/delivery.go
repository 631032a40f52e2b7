package sepay

import (
	"context"
	"errors"
	"fmt"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
)

// DeliveryLog keeps every validated delivery with its raw body, so rejected
// ones can be inspected and replayed by hand.
type DeliveryLog struct {
	repo repository.WebhookDeliveryRepository
}

func NewDeliveryLog(repo repository.WebhookDeliveryRepository) *DeliveryLog {
	return &DeliveryLog{repo: repo}
}

// Record stores the delivery, or counts another attempt when the gateway
// retries the same id.
func (l *DeliveryLog) Record(ctx context.Context, externalID string, payload []byte) (*models.WebhookDelivery, error) {
	if externalID == "" {
		return nil, errors.New("external id is required")
	}
	delivery := &models.WebhookDelivery{
		Provider:    models.WebhookProviderSePay,
		ExternalID:  externalID,
		PayloadJSON: string(payload),
	}
	if err := l.repo.Upsert(ctx, delivery); err != nil {
		return nil, fmt.Errorf("record delivery %s: %w", externalID, err)
	}
	return delivery, nil
}

// MarkProcessed stamps the delivery's outcome and optional error.
func (l *DeliveryLog) MarkProcessed(ctx context.Context, deliveryID uint, outcome string, processingErr error) error {
	if deliveryID == 0 {
		return errors.New("delivery id is required")
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return l.repo.MarkProcessed(ctx, deliveryID, outcome, msg)
}
