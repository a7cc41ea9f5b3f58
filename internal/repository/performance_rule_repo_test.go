package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

func TestPerformanceRuleRepositoryActiveRulesAndSoftDelete(t *testing.T) {
	db := setupMonitoringTestDB(t)
	repo := NewPerformanceRuleRepository(db)
	ctx := context.Background()

	threshold := 75.0
	active := models.PerformanceRule{FoundationID: 1, Name: "Attendance", Conditions: models.RuleConditions{AttendanceThreshold: &threshold}, IsActive: true}
	active.SetActions([]models.RuleAction{models.RuleActionNotifyAdmin})
	inactive := models.PerformanceRule{FoundationID: 1, Name: "Paused", IsActive: true}
	foreign := models.PerformanceRule{FoundationID: 2, Name: "Other", IsActive: true}
	require.NoError(t, repo.Create(ctx, &active))
	require.NoError(t, repo.Create(ctx, &inactive))
	require.NoError(t, repo.Create(ctx, &foreign))

	inactive.IsActive = false
	require.NoError(t, repo.Update(ctx, &inactive))

	rules, err := repo.ListActive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 75.0, *rules[0].Conditions.AttendanceThreshold)
	require.Nil(t, rules[0].Conditions.GradeThreshold)
	require.Equal(t, []models.RuleAction{models.RuleActionNotifyAdmin}, rules[0].ActionList())

	ids, err := repo.ListFoundationIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2}, ids)

	err = repo.Delete(ctx, 2, active.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound), "cross-foundation delete is not found")

	require.NoError(t, repo.Delete(ctx, 1, active.ID))
	_, err = repo.FindByID(ctx, 1, active.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
