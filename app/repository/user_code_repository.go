package repository

import (
	"context"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userCodeRepository struct {
	db *gorm.DB
}

// NewUserCodeRepository creates a new user code repository instance
func NewUserCodeRepository(db *gorm.DB) UserCodeRepository {
	return &userCodeRepository{db: db}
}

func (r *userCodeRepository) GetByUserID(ctx context.Context, userID string) (*models.UserCode, error) {
	var uc models.UserCode
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&uc).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &uc, nil
}

func (r *userCodeRepository) GetByCode(ctx context.Context, code string) (*models.UserCode, error) {
	var uc models.UserCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&uc).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &uc, nil
}

// CreateIfNotExists ignores conflicts on either the user id or the code; the
// caller re-reads by user id to find out which row won.
func (r *userCodeRepository) CreateIfNotExists(ctx context.Context, userCode *models.UserCode) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(userCode)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
