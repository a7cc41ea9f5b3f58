package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/service"
	"github.com/noah-isme/scholarwatch-api/internal/utils"
)

// PerformanceAlertHandler exposes alert generation, lifecycle, and analytics endpoints.
type PerformanceAlertHandler struct {
	alerts    service.PerformanceAlertService
	analytics service.AlertAnalyticsService
	generate  fiber.Handler
	logger    zerolog.Logger
}

// NewPerformanceAlertHandler constructs the handler. generateGuard, when set, runs in front of
// the generate endpoint (typically a rate limiter).
func NewPerformanceAlertHandler(alerts service.PerformanceAlertService, analytics service.AlertAnalyticsService, generateGuard fiber.Handler, logger zerolog.Logger) *PerformanceAlertHandler {
	if generateGuard == nil {
		generateGuard = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &PerformanceAlertHandler{
		alerts:    alerts,
		analytics: analytics,
		generate:  generateGuard,
		logger:    logger.With().Str("component", "performance_alert_handler").Logger(),
	}
}

// Register attaches alert endpoints to the router group.
func (h *PerformanceAlertHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/analytics", h.getAnalytics)
	router.Post("/generate", h.generate, h.generateAlerts)
	router.Patch("/:id/acknowledge", h.acknowledge)
	router.Patch("/:id/in-progress", h.markInProgress)
	router.Patch("/:id/resolve", h.resolve)
}

func (h *PerformanceAlertHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page parameter")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size parameter")
	}
	beneficiaryID, err := parseQueryInt(c, "beneficiary_id")
	if err != nil || beneficiaryID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid beneficiary_id parameter")
	}

	req := dto.AlertListRequest{
		Severity:      strings.ToLower(strings.TrimSpace(c.Query("severity"))),
		Status:        strings.ToLower(strings.TrimSpace(c.Query("status"))),
		AlertType:     strings.ToLower(strings.TrimSpace(c.Query("alert_type"))),
		BeneficiaryID: uint(beneficiaryID),
		Page:          page,
		PageSize:      pageSize,
	}

	result, err := h.alerts.List(c.UserContext(), foundationIDFromContext(c), req)
	if err != nil {
		return h.fail(c, err, "failed to list alerts")
	}

	return utils.OK(c, result.Items, "alerts retrieved", result.Pagination)
}

func (h *PerformanceAlertHandler) generateAlerts(c *fiber.Ctx) error {
	foundationID := foundationIDFromContext(c)
	result, err := h.alerts.GenerateAlerts(c.UserContext(), foundationID)
	if err != nil {
		return h.fail(c, err, "failed to generate alerts")
	}

	requestLogger(h.logger, c).Info().
		Uint("foundation_id", foundationID).
		Int("created", result.AlertsCreated).
		Int("suppressed", result.AlertsSuppressed).
		Msg("alert generation requested")

	return utils.SendSuccess(c, "alerts generated", result)
}

func (h *PerformanceAlertHandler) acknowledge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	alert, err := h.alerts.Acknowledge(c.UserContext(), id, foundationIDFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to acknowledge alert")
	}

	return utils.SendSuccess(c, "alert acknowledged", alert)
}

func (h *PerformanceAlertHandler) markInProgress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AlertProgressRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	alert, err := h.alerts.MarkInProgress(c.UserContext(), id, foundationIDFromContext(c), payload)
	if err != nil {
		return h.fail(c, err, "failed to update alert")
	}

	return utils.SendSuccess(c, "alert in progress", alert)
}

func (h *PerformanceAlertHandler) resolve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AlertResolveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	alert, err := h.alerts.Resolve(c.UserContext(), id, foundationIDFromContext(c), payload)
	if err != nil {
		return h.fail(c, err, "failed to resolve alert")
	}

	return utils.SendSuccess(c, "alert resolved", alert)
}

func (h *PerformanceAlertHandler) getAnalytics(c *fiber.Ctx) error {
	result, err := h.analytics.GetAnalytics(c.UserContext(), foundationIDFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to load alert analytics")
	}

	return utils.SendSuccess(c, "alert analytics retrieved", result)
}

func (h *PerformanceAlertHandler) fail(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrAlertNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "alert not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAlertConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case service.IsValidation(err), isValidationError(err):
		return badRequest(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("foundation_id", foundationIDFromContext(c)).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
