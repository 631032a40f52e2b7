package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DonationGatewaySePay    = "sepay"
	DonationStatusCompleted = "completed"
)

// Donation is the canonical record of one settled bank transfer. Rows are
// append-only; only LinkedUserID may be filled in after creation.
type Donation struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	UUID             string            `gorm:"type:varchar(36);uniqueIndex:ux_donations_uuid" json:"uuid"`
	ExternalID       string            `gorm:"type:varchar(191);not null;uniqueIndex:ux_donations_external_id" json:"transaction_id"`
	Gateway          string            `gorm:"type:varchar(20);not null;default:'sepay'" json:"gateway"`
	Amount           int64             `gorm:"not null" json:"amount"`
	MemoText         string            `gorm:"type:text" json:"description"`
	DonorDisplayName string            `gorm:"type:varchar(100);not null" json:"donor_name"`
	BankAccount      string            `gorm:"type:varchar(64);default:''" json:"bank_account"`
	BankLabel        string            `gorm:"type:varchar(100);default:''" json:"bank_name"`
	Status           string            `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	TransactionDate  string            `gorm:"type:varchar(32);default:''" json:"transaction_date"` // gateway wall clock, UTC+7
	OccurredAt       time.Time         `gorm:"not null;index" json:"occurred_at"`
	LinkedUserID     *string           `gorm:"type:varchar(128);index;default:null" json:"user_id,omitempty"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = DonationStatusCompleted
	}
	if d.Gateway == "" {
		d.Gateway = DonationGatewaySePay
	}
	return nil
}

// IsLinked reports whether the donation is attributed to a registered user.
func (d *Donation) IsLinked() bool {
	return d.LinkedUserID != nil && *d.LinkedUserID != ""
}
