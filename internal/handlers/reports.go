package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ananth-NQI/market-analyst-backend/internal/services"
)

// ReportHandler serves generated PDF reports
type ReportHandler struct {
	reports *services.ReportLibrary
	log     zerolog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *services.ReportLibrary, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// Download sends a report as an attachment
func (h *ReportHandler) Download(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("filename"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report name",
		})
	}

	path, err := h.reports.Open(name)
	switch {
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report not found",
		})
	case services.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		h.log.Error().Err(err).Str("filename", name).Msg("failed to open report")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read report",
		})
	}

	return c.Download(path, name)
}
