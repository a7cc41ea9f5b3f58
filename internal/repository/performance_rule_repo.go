package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// PerformanceRuleRepository stores foundation performance rules.
type PerformanceRuleRepository interface {
	ListActive(ctx context.Context, foundationID uint) ([]models.PerformanceRule, error)
	List(ctx context.Context, foundationID uint) ([]models.PerformanceRule, error)
	ListFoundationIDs(ctx context.Context) ([]uint, error)
	FindByID(ctx context.Context, foundationID, id uint) (models.PerformanceRule, error)
	Create(ctx context.Context, rule *models.PerformanceRule) error
	Update(ctx context.Context, rule *models.PerformanceRule) error
	Delete(ctx context.Context, foundationID, id uint) error
}

type performanceRuleRepository struct {
	db *gorm.DB
}

// NewPerformanceRuleRepository constructs a repository backed by GORM.
func NewPerformanceRuleRepository(db *gorm.DB) PerformanceRuleRepository {
	return &performanceRuleRepository{db: db}
}

func (r *performanceRuleRepository) ListActive(ctx context.Context, foundationID uint) ([]models.PerformanceRule, error) {
	var rules []models.PerformanceRule
	err := r.db.WithContext(ctx).
		Where("foundation_id = ? AND is_active = ?", foundationID, true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *performanceRuleRepository) List(ctx context.Context, foundationID uint) ([]models.PerformanceRule, error) {
	var rules []models.PerformanceRule
	err := r.db.WithContext(ctx).
		Where("foundation_id = ?", foundationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// ListFoundationIDs returns foundations that have at least one active rule.
func (r *performanceRuleRepository) ListFoundationIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.PerformanceRule{}).
		Where("is_active = ?", true).
		Distinct().
		Order("foundation_id").
		Pluck("foundation_id", &ids).Error
	return ids, err
}

func (r *performanceRuleRepository) FindByID(ctx context.Context, foundationID, id uint) (models.PerformanceRule, error) {
	var rule models.PerformanceRule
	if err := r.db.WithContext(ctx).
		Where("id = ? AND foundation_id = ?", id, foundationID).
		First(&rule).Error; err != nil {
		return models.PerformanceRule{}, err
	}
	return rule, nil
}

func (r *performanceRuleRepository) Create(ctx context.Context, rule *models.PerformanceRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *performanceRuleRepository) Update(ctx context.Context, rule *models.PerformanceRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete soft-deletes the rule. Alerts generated from it keep their snapshot.
func (r *performanceRuleRepository) Delete(ctx context.Context, foundationID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND foundation_id = ?", id, foundationID).
		Delete(&models.PerformanceRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
