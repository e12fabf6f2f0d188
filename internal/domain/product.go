package domain

// Product is a catalog entry as fetched for a single computation. Values are
// treated as immutable once fetched.
type Product struct {
	ID            int64   `json:"productId"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Brand         string  `json:"brand"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	Weight        float64 `json:"weight"`
}

// ProductIDs returns the identifiers of products in order.
func ProductIDs(products []Product) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

// TotalPrice sums the prices of the given products.
func TotalPrice(products []Product) float64 {
	var total float64
	for _, p := range products {
		total += p.Price
	}
	return total
}
