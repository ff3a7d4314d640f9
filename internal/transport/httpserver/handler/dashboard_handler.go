package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/transport/httpserver/dto"
)

// DashboardHandler handles dashboard HTTP requests.
type DashboardHandler struct {
	videos domain.VideoRepository
	models *service.ModelSet
	logger *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(videos domain.VideoRepository, models *service.ModelSet, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		videos: videos,
		models: models,
		logger: logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	count, _ := h.videos.Count(c.Context())

	return c.Render("pages/dashboard", fiber.Map{
		"Title":      "View Forecast Dashboard",
		"VideoCount": count,
		"Models":     dto.FromModelInfo(h.models.Info()),
	}, "layouts/base")
}
