package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/domain"
)

// SaveSelection stores the shopper's budget items and then the finalized
// list. A zero quantity counts as one.
func (p *Planner) SaveSelection(ctx context.Context, userID string, req SaveRequest) (SaveResult, error) {
	if userID == "" {
		return SaveResult{}, errors.New("user id is required")
	}
	if len(req.Items) == 0 {
		return SaveResult{}, fmt.Errorf("%w: items must not be empty", ErrInvalidRequest)
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return SaveResult{}, fmt.Errorf("%w: productId is required", ErrInvalidRequest)
		}
		if item.Price < 0 || item.Quantity < 0 {
			return SaveResult{}, fmt.Errorf("%w: price and quantity must not be negative", ErrInvalidRequest)
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		total += item.LineTotal()
		items = append(items, item)
	}

	if err := p.lists.SaveBudgetItems(ctx, userID, req.Budget, normalizeTerms(req.DesiredItems)); err != nil {
		return SaveResult{}, err
	}
	listID, err := p.lists.SaveSelection(ctx, userID, items, total)
	if err != nil {
		return SaveResult{}, err
	}

	p.logger.Info("shopping list saved",
		zap.String("user_id", userID),
		zap.String("list_id", listID),
		zap.Int("items", len(items)),
		zap.Float64("total", total),
	)
	return SaveResult{ListID: listID, TotalCost: total, ItemCount: len(items)}, nil
}

// Lists returns the shopper's saved lists, newest first.
func (p *Planner) Lists(ctx context.Context, userID string) ([]domain.ShoppingListSummary, error) {
	return p.lists.ListsForUser(ctx, userID)
}
