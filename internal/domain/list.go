package domain

import "time"

// CartItem is one line of a finalized selection.
type CartItem struct {
	ProductID int64
	Name      string
	Category  string
	Brand     string
	Price     float64
	Weight    float64
	Quantity  int
}

// LineTotal returns price multiplied by quantity.
func (c CartItem) LineTotal() float64 {
	return c.Price * float64(c.Quantity)
}

// ShoppingListSummary represents a saved list for listing endpoints.
type ShoppingListSummary struct {
	ID        string
	UserID    string
	TotalCost float64
	ItemCount int
	CreatedAt time.Time
}
