// Package service orchestrates plan computations: it fetches candidates from
// the catalog, runs the optimizer, caches candidate pools for range changes
// and persists finalized selections.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/metrics"
	"github.com/vanshika/basketwise/internal/optimizer"
	"github.com/vanshika/basketwise/internal/poolcache"
)

const fetchConcurrency = 8

// Catalog is the product source the planner reads from.
type Catalog interface {
	Fetch(ctx context.Context, term string) ([]domain.Product, error)
	Query(ctx context.Context, category string, excludeIDs []int64) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Alternatives(ctx context.Context, productID int64) ([]domain.Product, error)
}

// ListRepository persists finalized selections and serves purchase history.
type ListRepository interface {
	SaveSelection(ctx context.Context, userID string, items []domain.CartItem, totalCost float64) (string, error)
	SaveBudgetItems(ctx context.Context, userID string, budget float64, items []string) error
	ListsForUser(ctx context.Context, userID string) ([]domain.ShoppingListSummary, error)
	CoPurchased(ctx context.Context, productIDs []int64, limit int) ([]domain.Recommendation, error)
}

// Options tunes a Planner. Zero values select defaults.
type Options struct {
	Normalizer          *optimizer.Normalizer
	RecommendationLimit int
	RangePathWarnLimit  int
	Metrics             *metrics.Metrics
	Logger              *zap.Logger
}

// Planner is the entry point for every computation exposed over HTTP.
type Planner struct {
	catalog     Catalog
	lists       ListRepository
	pools       poolcache.Store
	normalizer  *optimizer.Normalizer
	recommender *optimizer.Recommender
	warnPaths   int
	metrics     *metrics.Metrics
	logger      *zap.Logger
	newID       func() string
	nowFn       func() time.Time
}

// NewPlanner wires a Planner over its collaborators.
func NewPlanner(catalog Catalog, lists ListRepository, pools poolcache.Store, opts Options) *Planner {
	if opts.Normalizer == nil {
		opts.Normalizer = optimizer.DefaultNormalizer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Planner{
		catalog:     catalog,
		lists:       lists,
		pools:       pools,
		normalizer:  opts.Normalizer,
		recommender: optimizer.NewRecommender(catalog, opts.RecommendationLimit),
		warnPaths:   opts.RangePathWarnLimit,
		metrics:     opts.Metrics,
		logger:      opts.Logger.Named("planner"),
		newID:       uuid.NewString,
		nowFn:       time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (p *Planner) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		p.nowFn = nowFn
	}
}

// Plan fetches candidates for every desired item, computes the selection and
// both paths, and caches the candidate pool under a new plan id.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	start := p.nowFn()
	if err := validatePrices(req.Budget, req.MinPrice, req.MaxPrice); err != nil {
		return PlanResult{}, err
	}
	desired := normalizeTerms(req.DesiredItems)

	candidates, err := p.fetchCandidates(ctx, desired)
	if err != nil {
		return PlanResult{}, err
	}

	pool := poolcache.Pool{
		PlanID:     p.newID(),
		Budget:     req.Budget,
		Desired:    desired,
		Candidates: candidates,
		CreatedAt:  start.UTC(),
	}
	if err := p.pools.Put(ctx, pool); err != nil {
		// Range changes for this plan will fail, the plan itself is still valid.
		p.logger.Warn("cache candidate pool", zap.String("plan_id", pool.PlanID), zap.Error(err))
	}

	result := p.compute(pool, req.MinPrice, req.MaxPrice)
	p.metrics.ObservePlan("plan", p.nowFn().Sub(start))
	p.logger.Info("plan computed",
		zap.String("plan_id", pool.PlanID),
		zap.Float64("budget", req.Budget),
		zap.Strings("items", desired),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(result.Selection)),
		zap.Float64("optimal_cost", result.Optimal.Cost),
	)
	return result, nil
}

// Recompute re-runs selection, graph construction and both path searches
// for a cached plan with a new price window.
func (p *Planner) Recompute(ctx context.Context, planID string, minPrice, maxPrice float64) (PlanResult, error) {
	start := p.nowFn()
	pool, err := p.pools.Get(ctx, planID)
	if err != nil {
		return PlanResult{}, err
	}
	if err := validatePrices(pool.Budget, minPrice, maxPrice); err != nil {
		return PlanResult{}, err
	}

	result := p.compute(pool, minPrice, maxPrice)
	p.metrics.ObservePlan("recompute", p.nowFn().Sub(start))
	p.logger.Debug("plan recomputed",
		zap.String("plan_id", planID),
		zap.Float64("min_price", result.MinPrice),
		zap.Float64("max_price", result.MaxPrice),
	)
	return result, nil
}

// fetchCandidates queries the catalog for each term concurrently. A failed
// lookup counts as no match for that term. Results are concatenated in
// desired order so computations are reproducible.
func (p *Planner) fetchCandidates(ctx context.Context, desired []string) ([]domain.Product, error) {
	perTerm := make([][]domain.Product, len(desired))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, term := range desired {
		g.Go(func() error {
			products, err := p.catalog.Fetch(gctx, term)
			if err != nil {
				p.metrics.FetchFailed()
				p.logger.Warn("candidate fetch failed", zap.String("term", term), zap.Error(err))
				return nil
			}
			perTerm[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var (
		all   []domain.Product
		empty int
	)
	for _, products := range perTerm {
		if len(products) == 0 {
			empty++
		}
		all = append(all, products...)
	}
	p.metrics.ObservePool(len(all), empty)
	if all == nil {
		all = []domain.Product{}
	}
	return all, nil
}

func (p *Planner) compute(pool poolcache.Pool, minPrice, maxPrice float64) PlanResult {
	if maxPrice > pool.Budget {
		maxPrice = pool.Budget
	}

	selection := optimizer.Select(pool.Candidates, pool.Budget, pool.Desired, p.normalizer)
	graph := optimizer.BuildGraph(pool.Desired, pool.Candidates)
	result := PlanResult{
		PlanID:         pool.PlanID,
		Budget:         pool.Budget,
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		DesiredItems:   pool.Desired,
		Selection:      selection,
		SelectionTotal: domain.TotalPrice(selection),
		Graph:          graph,
		Optimal:        optimizer.MinCostPath(graph),
		ComputedAt:     p.nowFn().UTC(),
	}

	if result.RangeActive() {
		if n := graph.PathCount(); p.warnPaths > 0 && n > p.warnPaths {
			p.logger.Warn("range search enumerates many paths",
				zap.String("plan_id", pool.PlanID),
				zap.Int("paths", n),
			)
		}
		if inRange, ok := optimizer.BestPathInRange(graph, minPrice, maxPrice); ok {
			result.InRange = &inRange
		} else {
			p.metrics.RangeMissed()
		}
	}
	return result
}

func validatePrices(budget, minPrice, maxPrice float64) error {
	switch {
	case budget < 0:
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidRequest)
	case minPrice < 0:
		return fmt.Errorf("%w: minPrice must not be negative", ErrInvalidRequest)
	case maxPrice < 0:
		return fmt.Errorf("%w: maxPrice must not be negative", ErrInvalidRequest)
	}
	return nil
}
