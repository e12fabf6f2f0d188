package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/vanshika/basketwise/internal/domain"
)

const (
	// DefaultRecommendationLimit caps the number of recommendations returned.
	DefaultRecommendationLimit = 5
	// CategoryFallbackConfidence is assigned when no similarity or purchase
	// history signal exists.
	CategoryFallbackConfidence = 0.5
)

// RecommendationSource returns candidate products of a category, excluding
// the given product ids. It is read-only.
type RecommendationSource interface {
	Query(ctx context.Context, category string, excludeIDs []int64) ([]domain.Product, error)
}

// Recommender finds items whose weight is closest to the average weight of a
// selection.
type Recommender struct {
	source RecommendationSource
	limit  int
}

// NewRecommender returns a Recommender backed by source. A non-positive limit
// uses DefaultRecommendationLimit; limits above it are capped.
func NewRecommender(source RecommendationSource, limit int) *Recommender {
	if limit <= 0 || limit > DefaultRecommendationLimit {
		limit = DefaultRecommendationLimit
	}
	return &Recommender{source: source, limit: limit}
}

// Recommend ranks candidates of category by |weight - avgWeight| ascending
// and returns the closest ones. Confidence is 1 minus the difference scaled
// by max(1, avgWeight), clamped to [0, 1]. Excluded ids never appear in the
// result. An empty selection returns an empty list without querying.
func (r *Recommender) Recommend(ctx context.Context, selected []domain.Product, category string, excludeIDs []int64) ([]domain.Recommendation, error) {
	if len(selected) == 0 {
		return []domain.Recommendation{}, nil
	}

	var sum float64
	for _, p := range selected {
		sum += p.Weight
	}
	avg := sum / float64(len(selected))

	candidates, err := r.source.Query(ctx, category, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("query recommendation candidates: %w", err)
	}
	candidates = excludeProducts(candidates, excludeIDs)

	type scored struct {
		product domain.Product
		diff    float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{product: c, diff: math.Abs(c.Weight - avg)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].diff < ranked[j].diff
	})

	scale := math.Max(1, avg)
	out := make([]domain.Recommendation, 0, r.limit)
	for _, s := range ranked {
		if len(out) == r.limit {
			break
		}
		out = append(out, domain.Recommendation{
			Product:    s.product,
			Confidence: clamp01(1 - s.diff/scale),
			Source:     domain.SourceWeightSimilarity,
		})
	}
	return out, nil
}

// CategoryFallback turns plain category candidates into recommendations with
// the fixed fallback confidence, keeping candidate order.
func CategoryFallback(candidates []domain.Product, excludeIDs []int64, limit int) []domain.Recommendation {
	candidates = excludeProducts(candidates, excludeIDs)
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]domain.Recommendation, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, domain.Recommendation{
			Product:    c,
			Confidence: CategoryFallbackConfidence,
			Source:     domain.SourceCategory,
		})
	}
	return out
}

func excludeProducts(products []domain.Product, ids []int64) []domain.Product {
	if len(ids) == 0 {
		return products
	}
	skip := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
