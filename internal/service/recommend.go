package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/optimizer"
)

// ComplementaryFallbackLimit caps category-only suggestions returned when
// purchase history has nothing to offer.
const ComplementaryFallbackLimit = 3

const coPurchaseLimit = 5

// Recommend suggests products whose weight is close to the selection's
// average weight.
func (p *Planner) Recommend(ctx context.Context, req RecommendRequest) ([]domain.Recommendation, error) {
	selected, category, err := p.resolveSelection(ctx, req)
	if err != nil {
		return nil, err
	}
	exclude := mergeIDs(domain.ProductIDs(selected), req.ExcludeIDs)
	return p.recommender.Recommend(ctx, selected, category, exclude)
}

// Complementary suggests products saved alongside the selection in other
// lists. Without usable history it falls back to other products from the
// selection's category at a fixed confidence.
func (p *Planner) Complementary(ctx context.Context, req RecommendRequest) ([]domain.Recommendation, error) {
	selected, category, err := p.resolveSelection(ctx, req)
	if err != nil {
		return nil, err
	}
	ids := domain.ProductIDs(selected)

	recs, err := p.lists.CoPurchased(ctx, ids, coPurchaseLimit)
	if err != nil {
		p.logger.Warn("co-purchase lookup failed, using category fallback", zap.Error(err))
	} else if len(recs) > 0 {
		return recs, nil
	}

	exclude := mergeIDs(ids, req.ExcludeIDs)
	candidates, err := p.catalog.Query(ctx, category, exclude)
	if err != nil {
		return nil, fmt.Errorf("category fallback: %w", err)
	}
	return optimizer.CategoryFallback(candidates, exclude, ComplementaryFallbackLimit), nil
}

// Alternatives returns substitutes for a product. Unknown products yield
// the catalog's not-found error.
func (p *Planner) Alternatives(ctx context.Context, productID int64) ([]domain.Product, error) {
	if _, err := p.catalog.Get(ctx, productID); err != nil {
		return nil, err
	}
	return p.catalog.Alternatives(ctx, productID)
}

// Search returns the candidates a desired item would fetch.
func (p *Planner) Search(ctx context.Context, query string) ([]domain.Product, error) {
	term := sanitizeString(query)
	if term == "" {
		return []domain.Product{}, nil
	}
	return p.catalog.Fetch(ctx, term)
}

func (p *Planner) resolveSelection(ctx context.Context, req RecommendRequest) ([]domain.Product, string, error) {
	if len(req.ProductIDs) == 0 {
		return nil, "", fmt.Errorf("%w: productIds must not be empty", ErrInvalidRequest)
	}

	selected := make([]domain.Product, 0, len(req.ProductIDs))
	for _, id := range mergeIDs(req.ProductIDs, nil) {
		product, err := p.catalog.Get(ctx, id)
		if err != nil {
			return nil, "", fmt.Errorf("load product %d: %w", id, err)
		}
		selected = append(selected, product)
	}

	category := sanitizeString(req.Category)
	if category == "" {
		category = selected[0].Category
	}
	if category == "" {
		return nil, "", errors.Join(ErrInvalidRequest, errors.New("category could not be determined"))
	}
	return selected, category, nil
}
