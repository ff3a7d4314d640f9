package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/transport/httpserver/dto"
	"view-forecast-service/internal/validator"
)

// TrackingHandler handles video tracking HTTP requests.
type TrackingHandler struct {
	service   *service.TrackingService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(svc *service.TrackingService, v *validator.Validator, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Track handles POST /api/v1/videos
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	video, err := h.service.Track(c.Context(), req.VideoID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromVideoRecord(video))
}

// Growth handles GET /api/v1/videos/:id/growth
func (h *TrackingHandler) Growth(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "video id is required",
			Code:  "MISSING_ID",
		})
	}

	summary, err := h.service.GrowthSummary(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromGrowthSummary(summary))
}

// Snapshots handles GET /api/v1/videos/:id/snapshots
func (h *TrackingHandler) Snapshots(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "video id is required",
			Code:  "MISSING_ID",
		})
	}

	series, err := h.service.Snapshots(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromSnapshots(id, series))
}
