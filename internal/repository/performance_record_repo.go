package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// PerformanceRecordRepository reads and stores beneficiary performance records.
type PerformanceRecordRepository interface {
	Create(ctx context.Context, record *models.PerformanceRecord) error
	ListBeneficiaryIDs(ctx context.Context, foundationID uint) ([]uint, error)
	History(ctx context.Context, foundationID, beneficiaryID uint, limit int) ([]models.PerformanceRecord, error)
}

type performanceRecordRepository struct {
	db *gorm.DB
}

// NewPerformanceRecordRepository constructs a repository backed by GORM.
func NewPerformanceRecordRepository(db *gorm.DB) PerformanceRecordRepository {
	return &performanceRecordRepository{db: db}
}

func (r *performanceRecordRepository) Create(ctx context.Context, record *models.PerformanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *performanceRecordRepository) ListBeneficiaryIDs(ctx context.Context, foundationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.PerformanceRecord{}).
		Where("foundation_id = ?", foundationID).
		Distinct().
		Order("beneficiary_id").
		Pluck("beneficiary_id", &ids).Error
	return ids, err
}

// History returns the beneficiary's records, most recent session first.
func (r *performanceRecordRepository) History(ctx context.Context, foundationID, beneficiaryID uint, limit int) ([]models.PerformanceRecord, error) {
	query := r.db.WithContext(ctx).
		Where("foundation_id = ? AND beneficiary_id = ?", foundationID, beneficiaryID).
		Order("session_sequence DESC").
		Order("recorded_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.PerformanceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
