package repository

import (
	"context"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository instance
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &donation, nil
}

func (r *donationRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&donation).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &donation, nil
}

func (r *donationRepository) CreateIfNotExists(ctx context.Context, donation *models.Donation) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(donation)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *donationRepository) LinkUser(ctx context.Context, id uint, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND (linked_user_id IS NULL OR linked_user_id = '' OR linked_user_id = ?)", id, userID).
		Update("linked_user_id", userID)
	return result.RowsAffected, result.Error
}

func (r *donationRepository) LinkUnclaimedByExternalIDs(ctx context.Context, userID string, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("external_id IN ? AND (linked_user_id IS NULL OR linked_user_id = '')", externalIDs).
		Update("linked_user_id", userID)
	return result.RowsAffected, result.Error
}
