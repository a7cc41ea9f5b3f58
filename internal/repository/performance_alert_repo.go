package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// PerformanceAlertFilter narrows alert listings for a foundation.
type PerformanceAlertFilter struct {
	FoundationID  uint
	Severity      string
	Status        string
	AlertType     string
	BeneficiaryID uint
	Page          int
	PageSize      int
}

// AlertTransition describes a compare-and-set status change on an alert.
type AlertTransition struct {
	From            models.AlertStatus
	To              models.AlertStatus
	At              time.Time
	ProgressNote    *string
	ResolutionNotes string
}

// PerformanceAlertRepository persists performance alerts.
type PerformanceAlertRepository interface {
	CreateIfAbsent(ctx context.Context, alert *models.PerformanceAlert) (bool, error)
	FindByID(ctx context.Context, foundationID, id uint) (models.PerformanceAlert, error)
	Transition(ctx context.Context, foundationID, id uint, change AlertTransition) (bool, error)
	List(ctx context.Context, filter PerformanceAlertFilter) ([]models.PerformanceAlert, int64, error)
	ListForAnalytics(ctx context.Context, foundationID uint, resolvedSince time.Time) ([]models.PerformanceAlert, error)
}

type performanceAlertRepository struct {
	db *gorm.DB
}

// NewPerformanceAlertRepository constructs a repository backed by GORM.
func NewPerformanceAlertRepository(db *gorm.DB) PerformanceAlertRepository {
	return &performanceAlertRepository{db: db}
}

// CreateIfAbsent inserts the alert unless an open alert already exists for its tuple. The check
// and the insert are a single statement guarded by the unique open_key index, so concurrent
// callers cannot both succeed. It reports whether a row was created.
func (r *performanceAlertRepository) CreateIfAbsent(ctx context.Context, alert *models.PerformanceAlert) (bool, error) {
	key := models.AlertOpenKey(alert.FoundationID, alert.BeneficiaryID, alert.SessionID, alert.AlertType)
	alert.OpenKey = &key
	alert.Status = models.AlertStatusActive

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "open_key"}},
			DoNothing: true,
		}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *performanceAlertRepository) FindByID(ctx context.Context, foundationID, id uint) (models.PerformanceAlert, error) {
	var alert models.PerformanceAlert
	if err := r.db.WithContext(ctx).
		Where("id = ? AND foundation_id = ?", id, foundationID).
		First(&alert).Error; err != nil {
		return models.PerformanceAlert{}, err
	}
	return alert, nil
}

// Transition applies the change only while the alert is still in change.From. A false result
// with a nil error means another writer moved the alert first (or it does not exist).
func (r *performanceAlertRepository) Transition(ctx context.Context, foundationID, id uint, change AlertTransition) (bool, error) {
	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": change.At,
	}

	switch change.To {
	case models.AlertStatusAcknowledged:
		updates["acknowledged_at"] = change.At
	case models.AlertStatusInProgress:
		if change.ProgressNote != nil {
			updates["progress_note"] = *change.ProgressNote
		}
	case models.AlertStatusResolved:
		updates["resolution_notes"] = change.ResolutionNotes
		updates["resolved_at"] = change.At
		updates["open_key"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.PerformanceAlert{}).
		Where("id = ? AND foundation_id = ? AND status = ?", id, foundationID, change.From).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *performanceAlertRepository) List(ctx context.Context, filter PerformanceAlertFilter) ([]models.PerformanceAlert, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PerformanceAlert{}).
		Where("foundation_id = ?", filter.FoundationID)

	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AlertType != "" {
		query = query.Where("alert_type = ?", filter.AlertType)
	}
	if filter.BeneficiaryID > 0 {
		query = query.Where("beneficiary_id = ?", filter.BeneficiaryID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var alerts []models.PerformanceAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// ListForAnalytics returns every open alert plus alerts resolved at or after resolvedSince.
func (r *performanceAlertRepository) ListForAnalytics(ctx context.Context, foundationID uint, resolvedSince time.Time) ([]models.PerformanceAlert, error) {
	var alerts []models.PerformanceAlert
	err := r.db.WithContext(ctx).
		Where("foundation_id = ?", foundationID).
		Where("(status <> ? OR resolved_at >= ?)", models.AlertStatusResolved, resolvedSince).
		Find(&alerts).Error
	return alerts, err
}
