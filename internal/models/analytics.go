package models

// Collection names of the analytics data set
const (
	OrdersCollection   = "orders"
	ProductsCollection = "products"
)

// StatusCount is one row of the orders-by-status breakdown
type StatusCount struct {
	Status string `json:"status" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

// TopProduct is a best seller row. It deliberately carries no product
// identifier.
type TopProduct struct {
	ProductName       string  `json:"product_name" bson:"product_name"`
	ProductBrand      string  `json:"product_brand" bson:"product_brand"`
	ProductCategory   string  `json:"product_category" bson:"product_category"`
	TotalQuantitySold float64 `json:"total_quantity_sold" bson:"total_quantity_sold"`
}
