package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
)

// RequestMetrics records the count and latency of every request, labelled by
// the matched route pattern so path parameters do not explode cardinality.
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		route := c.Route().Path
		if route == "" || (route == "/" && c.Path() != "/") {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
