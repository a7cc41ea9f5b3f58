package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/service"
	"github.com/noah-isme/scholarwatch-api/internal/utils"
)

// PerformanceRuleHandler exposes rule management for foundation staff.
type PerformanceRuleHandler struct {
	service service.PerformanceRuleService
	logger  zerolog.Logger
}

// NewPerformanceRuleHandler constructs the handler.
func NewPerformanceRuleHandler(service service.PerformanceRuleService, logger zerolog.Logger) *PerformanceRuleHandler {
	return &PerformanceRuleHandler{
		service: service,
		logger:  logger.With().Str("component", "performance_rule_handler").Logger(),
	}
}

// Register attaches rule endpoints to the router group.
func (h *PerformanceRuleHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *PerformanceRuleHandler) list(c *fiber.Ctx) error {
	rules, err := h.service.List(c.UserContext(), foundationIDFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to list rules")
	}
	return utils.SendSuccess(c, "rules retrieved", rules)
}

func (h *PerformanceRuleHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	rule, err := h.service.Get(c.UserContext(), foundationIDFromContext(c), id)
	if err != nil {
		return h.fail(c, err, "failed to load rule")
	}
	return utils.SendSuccess(c, "rule retrieved", rule)
}

func (h *PerformanceRuleHandler) create(c *fiber.Ctx) error {
	var payload dto.PerformanceRuleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rule, err := h.service.Create(c.UserContext(), foundationIDFromContext(c), payload)
	if err != nil {
		return h.fail(c, err, "failed to create rule")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rule created", rule)
}

func (h *PerformanceRuleHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.PerformanceRuleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rule, err := h.service.Update(c.UserContext(), foundationIDFromContext(c), id, payload)
	if err != nil {
		return h.fail(c, err, "failed to update rule")
	}
	return utils.SendSuccess(c, "rule updated", rule)
}

func (h *PerformanceRuleHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), foundationIDFromContext(c), id); err != nil {
		return h.fail(c, err, "failed to delete rule")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PerformanceRuleHandler) fail(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "rule not found")
	case service.IsValidation(err), isValidationError(err):
		return badRequest(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
