package domain

// RecommendationSource names how a recommendation was derived.
type RecommendationSource string

const (
	SourceWeightSimilarity RecommendationSource = "weight_similarity"
	SourceCoPurchase       RecommendationSource = "co_purchase"
	SourceCategory         RecommendationSource = "category"
)

// Recommendation is a complementary product with a 0-1 confidence score.
type Recommendation struct {
	Product    Product
	Confidence float64
	Source     RecommendationSource
}
