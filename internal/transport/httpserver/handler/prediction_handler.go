package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/transport/httpserver/dto"
	"view-forecast-service/internal/validator"
)

// PredictionHandler handles forecast HTTP requests.
type PredictionHandler struct {
	service   *service.PredictionService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(svc *service.PredictionService, v *validator.Validator, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Predict handles GET /api/v1/predictions/:videoID
//
// With ?timeframe=N it serves a single horizon; with ?timeframes=a,b,c
// a custom list; with neither, the standard horizons.
func (h *PredictionHandler) Predict(c *fiber.Ctx) error {
	videoID := c.Params("videoID")

	var req dto.PredictionRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	timeframes, err := req.ParseTimeframes()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_TIMEFRAME",
		})
	}

	if len(timeframes) == 1 {
		result, err := h.service.Predict(c.Context(), videoID, timeframes[0])
		if err != nil {
			return respondError(c, h.logger, err)
		}

		return c.JSON(dto.FromPredictionResult(result))
	}

	results, err := h.service.PredictTimeframes(c.Context(), videoID, timeframes)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromPredictionResults(videoID, results))
}
