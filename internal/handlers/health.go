package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/market-analyst-backend/internal/services"
	"github.com/Ananth-NQI/market-analyst-backend/internal/storage"
)

const pingTimeout = 3 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	Version     string
	Environment string
	StorageType string

	store storage.ChatStore
	model *services.ModelService
	// analytics is nil when no MongoDB connection is available.
	analytics storage.Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, environment, storageType string, store storage.ChatStore, model *services.ModelService, analytics storage.Pinger) *HealthHandler {
	return &HealthHandler{
		Version:     version,
		Environment: environment,
		StorageType: storageType,
		store:       store,
		model:       model,
		analytics:   analytics,
	}
}

// Info describes the service and its endpoints
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":     "Market Analyst Backend API",
		"version":     h.Version,
		"status":      "healthy",
		"environment": h.Environment,
		"storage":     h.StorageType,
		"endpoints": fiber.Map{
			"health":    "/health",
			"metrics":   "/metrics",
			"chat":      "/chatBot",
			"reports":   "/reports/download/:filename",
			"analytics": "/api/analytics/orders",
		},
	})
}

// Check pings the backing stores and reports 503 when one is unreachable
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK

	dbHealthy := h.store.Ping(ctx) == nil
	if !dbHealthy {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	analytics := "disabled"
	if h.analytics != nil {
		analytics = "connected"
		if err := h.analytics.Ping(ctx); err != nil {
			analytics = "error"
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"version": h.Version,
		"services": fiber.Map{
			"database":     dbHealthy,
			"analytics":    analytics,
			"model_loaded": h.model.Loaded(),
		},
	})
}
