package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

const (
	DefaultTopProductsLimit = 10
	MaxTopProductsLimit     = 100
)

// Aggregator executes read-only queries on the analytics collections.
type Aggregator interface {
	Count(ctx context.Context, collection string, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out interface{}) error
}

// OrdersService answers the fixed catalog of order analytics. Every query
// is pushed down to the database as a filter or aggregation pipeline.
type OrdersService struct {
	agg     Aggregator
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewOrdersService(agg Aggregator, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *OrdersService {
	return &OrdersService{
		agg:     agg,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("component", "orders").Logger(),
		metrics: m,
	}
}

// TotalOrders counts every order.
func (s *OrdersService) TotalOrders(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.agg.Count(ctx, models.OrdersCollection, bson.D{})
	return n, s.done("total_orders", err)
}

// TotalRevenue sums the total of every order, 0 when there are none.
func (s *OrdersService) TotalRevenue(ctx context.Context) (float64, error) {
	var rows []struct {
		TotalRevenue float64 `bson:"total_revenue"`
	}
	if err := s.aggregate(ctx, "total_revenue", totalRevenuePipeline(), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalRevenue, nil
}

// CountOrdersByStatus returns the number of orders per status value.
func (s *OrdersService) CountOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []models.StatusCount
	if err := s.aggregate(ctx, "count_orders_by_status", countByStatusPipeline(), &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	// null and "" statuses both decode to ""
	for _, r := range rows {
		out[r.Status] += r.Count
	}
	return out, nil
}

// AverageOrderTotal is the mean order total, 0 when there are no orders.
func (s *OrdersService) AverageOrderTotal(ctx context.Context) (float64, error) {
	var rows []struct {
		AverageTotal float64 `bson:"average_total"`
	}
	if err := s.aggregate(ctx, "average_order_total", averageTotalPipeline(), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].AverageTotal, nil
}

// OrdersByStatusAndTime counts orders placed in the last days whose status
// contains the given text, ignoring case.
func (s *OrdersService) OrdersByStatusAndTime(ctx context.Context, status string, days int) (int64, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return 0, &ValidationError{Field: "status", Reason: "is required"}
	}
	if days < 0 {
		return 0, &ValidationError{Field: "days", Reason: "must not be negative"}
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.agg.Count(ctx, models.OrdersCollection, statusWindowFilter(status, cutoff))
	return n, s.done("orders_by_status_and_time", err)
}

// RevenueByYear sums totals of orders placed within the calendar year (UTC).
func (s *OrdersService) RevenueByYear(ctx context.Context, year int) (float64, error) {
	if year < 1 || year > 9999 {
		return 0, &ValidationError{Field: "year", Reason: "must be between 1 and 9999"}
	}

	var rows []struct {
		TotalRevenueYear float64 `bson:"total_revenue_year"`
	}
	if err := s.aggregate(ctx, "revenue_by_year", revenueByYearPipeline(year), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalRevenueYear, nil
}

// TopSellingProductsByQuantity ranks products by units sold and describes
// them with product data joined from the products collection.
func (s *OrdersService) TopSellingProductsByQuantity(ctx context.Context, limit int) ([]models.TopProduct, error) {
	if limit < 1 || limit > MaxTopProductsLimit {
		return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}

	rows := []models.TopProduct{}
	if err := s.aggregate(ctx, "top_selling_products_by_quantity", topSellingPipeline(limit), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *OrdersService) aggregate(ctx context.Context, query string, pipeline mongo.Pipeline, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.done(query, s.agg.Aggregate(ctx, models.OrdersCollection, pipeline, out))
}

// done records the outcome of a query and wraps failures.
func (s *OrdersService) done(query string, err error) error {
	s.metrics.ObserveQuery(query, err)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("analytics query failed")
		return &StorageError{Op: query, Err: err}
	}
	return nil
}

func totalRevenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: "total_revenue", Value: 1}}}},
	}
}

func countByStatusPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func averageTotalPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average_total", Value: bson.D{{Key: "$avg", Value: "$total"}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: "average_total", Value: 1}}}},
	}
}

// statusWindowFilter matches the status as a literal, case-insensitive
// substring.
func statusWindowFilter(status string, cutoff time.Time) bson.D {
	return bson.D{
		{Key: "status", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(status)},
			{Key: "$options", Value: "i"},
		}},
		{Key: "ordered_at", Value: bson.D{{Key: "$gte", Value: cutoff}}},
	}
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func revenueByYearPipeline(year int) mongo.Pipeline {
	start, end := yearBounds(year)
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "ordered_at", Value: bson.D{{Key: "$gte", Value: start}, {Key: "$lt", Value: end}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_revenue_year", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: "total_revenue_year", Value: 1}}}},
	}
}

// topSellingPipeline groups by product, keeps the top sellers and joins
// their descriptive fields. The product id never reaches the output.
func topSellingPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "total_quantity", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_quantity", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: models.ProductsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "product_details"},
		}}},
		{{Key: "$unwind", Value: "$product_details"}},
		// keep the ranking after the join
		{{Key: "$sort", Value: bson.D{{Key: "total_quantity", Value: -1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "product_name", Value: "$product_details.name"},
			{Key: "product_brand", Value: "$product_details.brand"},
			{Key: "product_category", Value: "$product_details.category"},
			{Key: "total_quantity_sold", Value: "$total_quantity"},
		}}},
	}
}
