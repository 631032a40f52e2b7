package models

import "time"

// UserCode is the short linking code a registered user puts into a transfer
// memo so the donation can be attributed to them. One row per user.
type UserCode struct {
	UserID    string    `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_user_codes_code" json:"code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
