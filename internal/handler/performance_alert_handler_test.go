package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/handler"
	"github.com/noah-isme/scholarwatch-api/internal/middleware"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
	"github.com/noah-isme/scholarwatch-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

type handlerTestEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Foundation{}, &models.PerformanceRule{}, &models.PerformanceRecord{}, &models.PerformanceAlert{}))
	return db
}

// newHandlerTestEnv mounts the foundation routes behind a stub identity for foundation 1.
func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	db := setupHandlerTestDB(t)
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	alertRepo := repository.NewPerformanceAlertRepository(db)
	ruleRepo := repository.NewPerformanceRuleRepository(db)
	recordRepo := repository.NewPerformanceRecordRepository(db)

	alertService := service.NewPerformanceAlertService(alertRepo, ruleRepo, recordRepo, nil, validate, service.PerformanceAlertServiceConfig{}, logger)
	analyticsService := service.NewAlertAnalyticsService(alertRepo, repository.NewFoundationRepository(db), "UTC", logger)
	ruleService := service.NewPerformanceRuleService(ruleRepo, validate, logger)
	recordService := service.NewPerformanceRecordService(recordRepo, alertService, validate, logger)

	app := fiber.New()
	scoped := app.Group("/api/v2/foundations/:foundationID", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(99))
		c.Locals("user_role", "staff")
		c.Locals("foundation_id", uint(1))
		return c.Next()
	}, middleware.FoundationScope("foundationID"))

	handler.NewPerformanceAlertHandler(alertService, analyticsService, nil, logger).Register(scoped.Group("/alerts"))
	handler.NewPerformanceRuleHandler(ruleService, logger).Register(scoped.Group("/rules"))
	handler.NewPerformanceRecordHandler(recordService, logger).Register(scoped.Group("/records"))

	return &handlerTestEnv{app: app, db: db}
}

func (e *handlerTestEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var payload envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func (e *handlerTestEnv) seed(t *testing.T) {
	t.Helper()
	threshold := 75.0
	attendance := 50.0
	rule := models.PerformanceRule{FoundationID: 1, Name: "Attendance watch", IsActive: true, Conditions: models.RuleConditions{AttendanceThreshold: &threshold}}
	require.NoError(t, e.db.Create(&rule).Error)
	record := models.PerformanceRecord{FoundationID: 1, BeneficiaryID: 42, SessionID: 5, Attendance: &attendance, RecordedAt: time.Now().UTC()}
	require.NoError(t, e.db.Create(&record).Error)
}

func TestPerformanceAlertHandlerLifecycle(t *testing.T) {
	env := newHandlerTestEnv(t)
	env.seed(t)
	base := "/api/v2/foundations/1/alerts"

	resp, payload := env.do(t, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var generated struct {
		AlertsCreated int `json:"alerts_created"`
		Alerts        []struct {
			ID       uint   `json:"id"`
			Severity string `json:"severity"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &generated))
	require.Equal(t, 1, generated.AlertsCreated)
	require.Equal(t, "critical", generated.Alerts[0].Severity)
	alertPath := fmt.Sprintf("%s/%d", base, generated.Alerts[0].ID)

	resp, _ = env.do(t, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload = env.do(t, http.MethodGet, base+"?severity=critical&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(payload.Data, &items))
	require.Len(t, items, 1)
	require.Contains(t, string(payload.Meta), `"total_items":1`)

	resp, _ = env.do(t, http.MethodPatch, alertPath+"/acknowledge", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPatch, alertPath+"/acknowledge", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPatch, alertPath+"/in-progress", map[string]string{"note": "Meeting scheduled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPatch, alertPath+"/resolve", map[string]string{"resolution_notes": " "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, payload = env.do(t, http.MethodPatch, alertPath+"/resolve", map[string]string{"resolution_notes": "Attendance recovered"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(payload.Data), `"status":"resolved"`)

	resp, payload = env.do(t, http.MethodGet, base+"/analytics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var analytics struct {
		TotalActive   int64 `json:"total_active"`
		ResolvedToday int64 `json:"resolved_today"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &analytics))
	require.Equal(t, int64(0), analytics.TotalActive)
	require.Equal(t, int64(1), analytics.ResolvedToday)
}

func TestPerformanceAlertHandlerErrors(t *testing.T) {
	env := newHandlerTestEnv(t)
	base := "/api/v2/foundations/1/alerts"

	resp, _ := env.do(t, http.MethodPatch, base+"/abc/acknowledge", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPatch, base+"/404/acknowledge", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, base+"?status=closed", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, base+"?page=x", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v2/foundations/2/alerts", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
