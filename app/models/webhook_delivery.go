package models

import "time"

const (
	WebhookProviderSePay = "sepay"
)

// WebhookDelivery stores raw gateway deliveries with their processing outcome,
// so rejected events (e.g. unparsable dates) can be inspected and replayed.
type WebhookDelivery struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_deliveries_provider_external,unique,priority:1" json:"provider"`
	ExternalID      string     `gorm:"type:varchar(191);not null;index:ux_webhook_deliveries_provider_external,unique,priority:2" json:"external_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Attempts        int        `gorm:"not null;default:1" json:"attempts"`
	Outcome         string     `gorm:"type:varchar(32);default:'';index" json:"outcome"`
	ProcessedAt     *time.Time `gorm:"default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
