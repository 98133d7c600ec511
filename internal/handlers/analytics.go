package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/market-analyst-backend/internal/services"
)

// AnalyticsHandler exposes the read-only order analytics
type AnalyticsHandler struct {
	orders *services.OrdersService
}

func NewAnalyticsHandler(orders *services.OrdersService) *AnalyticsHandler {
	return &AnalyticsHandler{
		orders: orders,
	}
}

func (h *AnalyticsHandler) TotalOrders(c *fiber.Ctx) error {
	n, err := h.orders.TotalOrders(c.UserContext())
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{"total_orders": n})
}

func (h *AnalyticsHandler) TotalRevenue(c *fiber.Ctx) error {
	v, err := h.orders.TotalRevenue(c.UserContext())
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{"total_revenue": v})
}

func (h *AnalyticsHandler) OrdersByStatus(c *fiber.Ctx) error {
	counts, err := h.orders.CountOrdersByStatus(c.UserContext())
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{"orders_by_status": counts})
}

func (h *AnalyticsHandler) AverageOrderTotal(c *fiber.Ctx) error {
	v, err := h.orders.AverageOrderTotal(c.UserContext())
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{"average_order_total": v})
}

// StatusWindow counts orders whose status contains ?status= placed in the
// last ?days= days.
func (h *AnalyticsHandler) StatusWindow(c *fiber.Ctx) error {
	status := c.Query("status")
	if c.Query("days") == "" {
		return analyticsError(c, &services.ValidationError{Field: "days", Reason: "is required"})
	}
	days, err := intQuery(c, "days", 0)
	if err != nil {
		return analyticsError(c, err)
	}

	n, err := h.orders.OrdersByStatusAndTime(c.UserContext(), status, days)
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": status,
		"days":   days,
		"count":  n,
	})
}

func (h *AnalyticsHandler) RevenueByYear(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return analyticsError(c, &services.ValidationError{Field: "year", Reason: "must be an integer"})
	}

	v, err := h.orders.RevenueByYear(c.UserContext(), year)
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{
		"year":          year,
		"total_revenue": v,
	})
}

func (h *AnalyticsHandler) TopProducts(c *fiber.Ctx) error {
	limit, err := intQuery(c, "limit", services.DefaultTopProductsLimit)
	if err != nil {
		return analyticsError(c, err)
	}

	products, err := h.orders.TopSellingProductsByQuantity(c.UserContext(), limit)
	if err != nil {
		return analyticsError(c, err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

// intQuery parses an optional integer query parameter.
func intQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return v, nil
}

// analyticsError maps service errors onto the analytics response contract.
// Storage failures are already logged by the service.
func analyticsError(c *fiber.Ctx, err error) error {
	if services.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Analytics query failed",
	})
}
