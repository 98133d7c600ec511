package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
	"github.com/Ananth-NQI/market-analyst-backend/internal/storage"
)

// TestOrdersServiceMongo runs the analytics catalog against a live server
// when MONGO_TEST_URI is set.
func TestOrdersServiceMongo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("market_orders_test_" + time.Now().Format("150405"))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	svc := NewOrdersService(storage.NewMongoAggregator(db), 5*time.Second, zerolog.Nop(), nil)
	svc.now = func() time.Time { return fixedNow }

	t.Run("empty collection", func(t *testing.T) {
		n, err := svc.TotalOrders(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		avg, err := svc.AverageOrderTotal(ctx)
		require.NoError(t, err)
		assert.Zero(t, avg)

		top, err := svc.TopSellingProductsByQuantity(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, top)
	})

	_, err = db.Collection(models.ProductsCollection).InsertMany(ctx, []interface{}{
		bson.D{{Key: "_id", Value: "A"}, {Key: "name", Value: "Yerba"}, {Key: "brand", Value: "Rosamonte"}, {Key: "category", Value: "Infusiones"}},
		bson.D{{Key: "_id", Value: "B"}, {Key: "name", Value: "Café"}, {Key: "brand", Value: "Cabrales"}, {Key: "category", Value: "Infusiones"}},
		bson.D{{Key: "_id", Value: "C"}, {Key: "name", Value: "Azúcar"}, {Key: "brand", Value: "Ledesma"}, {Key: "category", Value: "Almacén"}},
	})
	require.NoError(t, err)

	order := func(product string, qty int, total float64, status string, at time.Time) interface{} {
		return bson.D{
			{Key: "product_id", Value: product},
			{Key: "quantity", Value: qty},
			{Key: "total", Value: total},
			{Key: "status", Value: status},
			{Key: "ordered_at", Value: at},
		}
	}
	_, err = db.Collection(models.OrdersCollection).InsertMany(ctx, []interface{}{
		order("A", 5, 10, "Delivered", fixedNow.AddDate(0, 0, -1)),
		order("B", 4, 20, "pending", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)),
		order("B", 5, 30, "delivered", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		order("C", 3, 40, "Delivered", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		order("C", 1, 25, "Delivered", fixedNow.AddDate(0, 0, -8)),
	})
	require.NoError(t, err)

	t.Run("totals", func(t *testing.T) {
		n, err := svc.TotalOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		revenue, err := svc.TotalRevenue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 125.0, revenue)

		avg, err := svc.AverageOrderTotal(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25.0, avg)
	})

	t.Run("by status", func(t *testing.T) {
		got, err := svc.CountOrdersByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"Delivered": 3, "delivered": 1, "pending": 1}, got)
	})

	t.Run("status window", func(t *testing.T) {
		// the order from 8 days ago falls outside a 7 day window
		n, err := svc.OrdersByStatusAndTime(ctx, "deliv", 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = svc.OrdersByStatusAndTime(ctx, "deliv", 8)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("revenue by year", func(t *testing.T) {
		got, err := svc.RevenueByYear(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, 65.0, got)
	})

	t.Run("top selling", func(t *testing.T) {
		got, err := svc.TopSellingProductsByQuantity(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, models.TopProduct{ProductName: "Café", ProductBrand: "Cabrales", ProductCategory: "Infusiones", TotalQuantitySold: 9}, got[0])
		assert.Equal(t, "Yerba", got[1].ProductName)
		assert.Equal(t, 5.0, got[1].TotalQuantitySold)
	})
}
