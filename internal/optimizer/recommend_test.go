package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/basketwise/internal/domain"
)

type stubSource struct {
	products []domain.Product
	err      error
	calls    int
	category string
	exclude  []int64
}

func (s *stubSource) Query(_ context.Context, category string, excludeIDs []int64) ([]domain.Product, error) {
	s.calls++
	s.category = category
	s.exclude = excludeIDs
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func TestRecommendRanksByWeightDistance(t *testing.T) {
	src := &stubSource{products: []domain.Product{
		{ID: 10, Weight: 5},
		{ID: 11, Weight: 2.2},
		{ID: 12, Weight: 1.9},
		{ID: 13, Weight: 2},
	}}
	selected := []domain.Product{{ID: 1, Weight: 1}, {ID: 2, Weight: 3}}

	got, err := NewRecommender(src, 0).Recommend(context.Background(), selected, "dairy", []int64{1, 2})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, int64(13), got[0].Product.ID)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, int64(12), got[1].Product.ID)
	assert.InDelta(t, 0.95, got[1].Confidence, 1e-9)
	assert.Equal(t, int64(11), got[2].Product.ID)
	assert.Equal(t, int64(10), got[3].Product.ID)
	assert.Equal(t, 0.0, got[3].Confidence)
	assert.Equal(t, domain.SourceWeightSimilarity, got[0].Source)

	assert.Equal(t, "dairy", src.category)
	assert.Equal(t, []int64{1, 2}, src.exclude)
}

func TestRecommendCapsAtFiveAndHonoursExclusions(t *testing.T) {
	var products []domain.Product
	for i := int64(1); i <= 9; i++ {
		products = append(products, domain.Product{ID: i, Weight: float64(i)})
	}
	// The source ignores exclusions; the recommender must not.
	src := &stubSource{products: products}

	got, err := NewRecommender(src, 50).Recommend(context.Background(), []domain.Product{{ID: 100, Weight: 1}}, "x", []int64{1, 2})
	require.NoError(t, err)

	require.Len(t, got, 5)
	for _, r := range got {
		assert.NotContains(t, []int64{1, 2}, r.Product.ID)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
	assert.Equal(t, int64(3), got[0].Product.ID)
}

func TestRecommendEmptySelectionSkipsQuery(t *testing.T) {
	src := &stubSource{}

	got, err := NewRecommender(src, 5).Recommend(context.Background(), nil, "dairy", nil)
	require.NoError(t, err)

	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, src.calls)
}

func TestRecommendSourceError(t *testing.T) {
	src := &stubSource{err: errors.New("db down")}

	_, err := NewRecommender(src, 5).Recommend(context.Background(), []domain.Product{{ID: 1}}, "dairy", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCategoryFallback(t *testing.T) {
	candidates := []domain.Product{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	got := CategoryFallback(candidates, []int64{2}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Product.ID)
	assert.Equal(t, int64(3), got[1].Product.ID)
	assert.Equal(t, CategoryFallbackConfidence, got[1].Confidence)
	assert.Equal(t, domain.SourceCategory, got[1].Source)

	assert.Len(t, CategoryFallback(candidates, nil, 0), 4)
	assert.Empty(t, CategoryFallback(nil, nil, 3))
}
