// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"view-forecast-service/internal/app/service"
	"view-forecast-service/internal/domain"
	"view-forecast-service/internal/transport/httpserver/dto"
)

// respondError maps application errors to HTTP responses. Domain
// validation problems are the client's fault; everything unmapped is a
// 500 and gets logged.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: verr.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	}

	if errors.Is(err, service.ErrTrainingInProgress) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "TRAINING_IN_PROGRESS",
		})
	}

	var cerr *domain.ConfigurationError
	if errors.As(err, &cerr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: cerr.Error(),
			Code:  "INSUFFICIENT_DATA",
		})
	}

	logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: "internal server error",
		Code:  "INTERNAL_ERROR",
	})
}
