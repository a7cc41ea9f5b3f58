package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/service"
	"github.com/noah-isme/scholarwatch-api/internal/utils"
)

// PerformanceRecordHandler accepts performance records from the academic intake.
type PerformanceRecordHandler struct {
	service service.PerformanceRecordService
	logger  zerolog.Logger
}

// NewPerformanceRecordHandler constructs the handler.
func NewPerformanceRecordHandler(service service.PerformanceRecordService, logger zerolog.Logger) *PerformanceRecordHandler {
	return &PerformanceRecordHandler{
		service: service,
		logger:  logger.With().Str("component", "performance_record_handler").Logger(),
	}
}

// Register attaches record endpoints to the router group.
func (h *PerformanceRecordHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
}

func (h *PerformanceRecordHandler) create(c *fiber.Ctx) error {
	var payload dto.PerformanceRecordCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Record(c.UserContext(), foundationIDFromContext(c), payload)
	if err != nil {
		switch {
		case service.IsValidation(err), isValidationError(err):
			return badRequest(c, err)
		case errors.Is(err, service.ErrEvaluationDeferred):
			requestLogger(h.logger, c).Warn().Err(err).Uint("record_id", result.Record.ID).Msg("performance recorded without evaluation")
			return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, service.ErrEvaluationDeferred.Error(), result)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("beneficiary_id", payload.BeneficiaryID).Msg("failed to record performance")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record performance")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "performance recorded", result)
}
