package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/basketwise/internal/domain"
)

// MemoryLists keeps saved lists and budget items in process memory. It
// backs development runs without a graph database and answers the same
// queries as Repository.
type MemoryLists struct {
	mu       sync.RWMutex
	lists    []memoryList
	budgets  map[string][]budgetItem
	products map[int64]domain.Product
	now      func() time.Time
	newID    func() string
}

type memoryList struct {
	summary domain.ShoppingListSummary
	items   []int64
}

type budgetItem struct {
	name   string
	budget float64
}

// NewMemory returns an empty in-memory list store.
func NewMemory() *MemoryLists {
	return &MemoryLists{
		budgets:  make(map[string][]budgetItem),
		products: make(map[int64]domain.Product),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SaveSelection stores a shopping list and returns its id. Product details
// are overwritten by the latest save, as the graph MERGE does.
func (m *MemoryLists) SaveSelection(ctx context.Context, userID string, items []domain.CartItem, totalCost float64) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := memoryList{
		summary: domain.ShoppingListSummary{
			ID:        m.newID(),
			UserID:    userID,
			TotalCost: totalCost,
			ItemCount: len(items),
			CreatedAt: m.now().UTC(),
		},
		items: make([]int64, 0, len(items)),
	}
	for _, item := range items {
		m.products[item.ProductID] = domain.Product{
			ID:       item.ProductID,
			Name:     item.Name,
			Category: item.Category,
			Brand:    item.Brand,
			Price:    item.Price,
			Weight:   item.Weight,
		}
		list.items = append(list.items, item.ProductID)
	}
	m.lists = append(m.lists, list)
	return list.summary.ID, nil
}

// SaveBudgetItems replaces the user's wanted items with the given names.
func (m *MemoryLists) SaveBudgetItems(ctx context.Context, userID string, budget float64, items []string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wanted := make([]budgetItem, 0, len(items))
	for _, name := range items {
		wanted = append(wanted, budgetItem{name: name, budget: budget})
	}

	m.mu.Lock()
	m.budgets[userID] = wanted
	m.mu.Unlock()
	return nil
}

// ListsForUser returns the user's saved lists, newest first.
func (m *MemoryLists) ListsForUser(ctx context.Context, userID string) ([]domain.ShoppingListSummary, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ShoppingListSummary, 0)
	for i := len(m.lists) - 1; i >= 0; i-- {
		if m.lists[i].summary.UserID == userID {
			out = append(out, m.lists[i].summary)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CoPurchased counts one pairing per seed entry and other entry sharing a
// list, with the same confidence threshold and ordering as Repository.
func (m *MemoryLists) CoPurchased(ctx context.Context, productIDs []int64, limit int) ([]domain.Recommendation, error) {
	if len(productIDs) == 0 {
		return []domain.Recommendation{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultCoPurchaseLimit
	}

	seeds := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		seeds[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	together := make(map[int64]int)
	for _, list := range m.lists {
		seedCount := 0
		for _, id := range list.items {
			if seeds[id] {
				seedCount++
			}
		}
		if seedCount == 0 {
			continue
		}
		for _, id := range list.items {
			if !seeds[id] {
				together[id] += seedCount
			}
		}
	}

	total := float64(len(m.lists))
	recs := make([]domain.Recommendation, 0, len(together))
	for id, count := range together {
		confidence := float64(count) / total
		if confidence <= MinCoPurchaseConfidence {
			continue
		}
		recs = append(recs, domain.Recommendation{
			Product:    m.products[id],
			Confidence: confidence,
			Source:     domain.SourceCoPurchase,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		ci, cj := together[recs[i].Product.ID], together[recs[j].Product.ID]
		if ci != cj {
			return ci > cj
		}
		return recs[i].Product.ID < recs[j].Product.ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
