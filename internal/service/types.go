package service

import (
	"errors"
	"time"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/optimizer"
)

// ErrInvalidRequest marks caller input the service refuses to compute on.
var ErrInvalidRequest = errors.New("invalid request")

// PlanRequest is the input of a full computation. A range is active when
// MaxPrice is positive; MaxPrice is clamped to Budget.
type PlanRequest struct {
	Budget       float64
	MinPrice     float64
	MaxPrice     float64
	DesiredItems []string
}

// PlanResult is the output of a computation. InRange is nil when no range
// is active or no complete path costs inside the window.
type PlanResult struct {
	PlanID         string
	Budget         float64
	MinPrice       float64
	MaxPrice       float64
	DesiredItems   []string
	Selection      []domain.Product
	SelectionTotal float64
	Graph          optimizer.Graph
	Optimal        optimizer.PathResult
	InRange        *optimizer.PathResult
	ComputedAt     time.Time
}

// RangeActive reports whether the result was computed with a price window.
func (r PlanResult) RangeActive() bool {
	return r.MaxPrice > 0
}

// SaveRequest finalizes a selection for a signed-in shopper.
type SaveRequest struct {
	Budget       float64
	DesiredItems []string
	Items        []domain.CartItem
}

// SaveResult identifies the stored list.
type SaveResult struct {
	ListID    string
	TotalCost float64
	ItemCount int
}

// RecommendRequest asks for products complementing the given selection.
// Category defaults to the category of the first selected product.
type RecommendRequest struct {
	ProductIDs []int64
	Category   string
	ExcludeIDs []int64
}
