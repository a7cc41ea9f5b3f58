package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

func newRuleTestService(t *testing.T) PerformanceRuleService {
	t.Helper()
	db := setupAlertServiceTestDB(t)
	return NewPerformanceRuleService(repository.NewPerformanceRuleRepository(db), validator.New(validator.WithRequiredStructEnabled()), testLogger())
}

func TestPerformanceRuleServiceCreateAndList(t *testing.T) {
	svc := newRuleTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.PerformanceRuleCreateRequest{
		Name:       "  <i>Attendance</i> watch ",
		Conditions: dto.RuleConditionsRequest{AttendanceThreshold: floatPtr(75)},
		Actions:    []string{"notify_admin", "notify_admin", "flag_for_review"},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "Attendance watch", created.Name)
	require.True(t, created.IsActive)
	require.Equal(t, []string{"notify_admin", "flag_for_review"}, created.Actions)

	_, err = svc.Create(ctx, 2, dto.PerformanceRuleCreateRequest{Name: "Other tenant", Conditions: dto.RuleConditionsRequest{GradeThreshold: floatPtr(60)}})
	require.NoError(t, err)

	rules, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 75.0, *rules[0].Conditions.AttendanceThreshold)
}

func TestPerformanceRuleServiceRejectsOutOfRangeConditions(t *testing.T) {
	svc := newRuleTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, dto.PerformanceRuleCreateRequest{Name: "Broken", Conditions: dto.RuleConditionsRequest{AttendanceThreshold: floatPtr(150)}})
	require.ErrorIs(t, err, ErrInvalidRuleConditions)

	_, err = svc.Create(ctx, 1, dto.PerformanceRuleCreateRequest{Name: "Broken", Conditions: dto.RuleConditionsRequest{ConsecutiveTermsBelow: intPtr(0)}})
	require.ErrorIs(t, err, ErrInvalidRuleConditions)

	_, err = svc.Create(ctx, 1, dto.PerformanceRuleCreateRequest{Name: "Unknown action", Actions: []string{"email_parents"}})
	require.Error(t, err)
	require.False(t, IsValidation(err))
}

func TestPerformanceRuleServiceUpdateAndDelete(t *testing.T) {
	svc := newRuleTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.PerformanceRuleCreateRequest{Name: "Grades", Conditions: dto.RuleConditionsRequest{GradeThreshold: floatPtr(60)}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, created.ID, dto.PerformanceRuleUpdateRequest{
		Conditions: &dto.RuleConditionsRequest{GradeThreshold: floatPtr(65), MissedUploads: intPtr(2)},
		IsActive:   boolPtr(false),
	})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, 65.0, *updated.Conditions.GradeThreshold)
	require.Equal(t, 2, *updated.Conditions.MissedUploads)
	require.Equal(t, "Grades", updated.Name)

	fetched, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	require.False(t, fetched.IsActive)

	_, err = svc.Update(ctx, 2, created.ID, dto.PerformanceRuleUpdateRequest{Name: stringPtr("Hijack")})
	require.ErrorIs(t, err, ErrRuleNotFound)

	require.ErrorIs(t, svc.Delete(ctx, 2, created.ID), ErrRuleNotFound)
	require.NoError(t, svc.Delete(ctx, 1, created.ID))

	_, err = svc.Get(ctx, 1, created.ID)
	require.ErrorIs(t, err, ErrRuleNotFound)
}

func stringPtr(v string) *string { return &v }
