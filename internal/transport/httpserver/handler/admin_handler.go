package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/transport/httpserver/dto"
)

// AdminHandler handles admin HTTP requests.
type AdminHandler struct {
	training *service.TrainingService
	tracking *service.TrackingService
	models   *service.ModelSet
	store    service.ArtifactStore
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	training *service.TrainingService,
	tracking *service.TrackingService,
	models *service.ModelSet,
	store service.ArtifactStore,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		training: training,
		tracking: tracking,
		models:   models,
		store:    store,
		logger:   logger,
	}
}

// Train handles POST /api/v1/admin/train
func (h *AdminHandler) Train(c *fiber.Ctx) error {
	h.logger.Info("manual training triggered")

	report, err := h.training.Run(c.Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromTrainingReport(report))
}

// Poll handles POST /api/v1/admin/poll
func (h *AdminHandler) Poll(c *fiber.Ctx) error {
	h.logger.Info("manual poll triggered")

	result, err := h.tracking.PollAll(c.Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromPollResult(result))
}

// Models handles GET /api/v1/admin/models
func (h *AdminHandler) Models(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"models": dto.FromModelInfo(h.models.Info()),
	})
}

// Artifacts handles GET /api/v1/admin/artifacts
func (h *AdminHandler) Artifacts(c *fiber.Ctx) error {
	artifacts, err := h.store.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"artifacts": dto.FromArtifacts(artifacts),
	})
}

// Artifact handles GET /api/v1/admin/artifacts/:type/:version
func (h *AdminHandler) Artifact(c *fiber.Ctx) error {
	modelType := domain.ModelType(c.Params("type"))
	if modelType != domain.ModelTypeShortForm && modelType != domain.ModelTypeLongForm {
		return respondError(c, h.logger, &domain.ValidationError{
			Field:  "type",
			Reason: "unknown model type",
		})
	}

	artifact, err := h.store.Load(c.Context(), modelType, c.Params("version"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dto.FromArtifact(artifact))
}
