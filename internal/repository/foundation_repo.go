package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// FoundationRepository reads tenant settings.
type FoundationRepository interface {
	FindByID(ctx context.Context, id uint) (models.Foundation, error)
	Create(ctx context.Context, foundation *models.Foundation) error
}

type foundationRepository struct {
	db *gorm.DB
}

// NewFoundationRepository constructs the foundation repository.
func NewFoundationRepository(db *gorm.DB) FoundationRepository {
	return &foundationRepository{db: db}
}

func (r *foundationRepository) FindByID(ctx context.Context, id uint) (models.Foundation, error) {
	var foundation models.Foundation
	if err := r.db.WithContext(ctx).First(&foundation, id).Error; err != nil {
		return models.Foundation{}, err
	}
	return foundation, nil
}

func (r *foundationRepository) Create(ctx context.Context, foundation *models.Foundation) error {
	return r.db.WithContext(ctx).Create(foundation).Error
}
