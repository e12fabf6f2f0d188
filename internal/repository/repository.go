package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/graph"
)

// MinCoPurchaseConfidence is the share of all saved lists a pairing must
// exceed before it is reported.
const MinCoPurchaseConfidence = 0.1

const defaultCoPurchaseLimit = 5

// Repository persists finalized selections and the purchase history derived
// from them in the graph database.
type Repository struct {
	client graph.Client
	now    func() time.Time
	newID  func() string
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{
		client: client,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SaveSelection stores a shopping list with one CONTAINS edge per item and
// returns the new list id. The statement is issued once.
func (r *Repository) SaveSelection(ctx context.Context, userID string, items []domain.CartItem, totalCost float64) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	listID := r.newID()
	params := map[string]any{
		"userId":    userID,
		"listId":    listID,
		"totalCost": totalCost,
		"itemCount": len(items),
		"createdAt": formatTime(r.now()),
		"items":     itemParams(items),
	}

	res, err := r.client.ExecuteWrite(ctx, saveSelectionCypher, params)
	if err != nil {
		return "", fmt.Errorf("save shopping list for %s: %w", userID, err)
	}
	if rec, err := res.Single(); err == nil {
		if id := rec.String("listId"); id != "" {
			listID = id
		}
	}
	return listID, nil
}

// SaveBudgetItems replaces the user's wanted items with the given names.
func (r *Repository) SaveBudgetItems(ctx context.Context, userID string, budget float64, items []string) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	params := map[string]any{
		"userId":    userID,
		"budget":    budget,
		"items":     items,
		"createdAt": formatTime(r.now()),
	}
	if _, err := r.client.ExecuteWrite(ctx, replaceBudgetItemsCypher, params); err != nil {
		return fmt.Errorf("save budget items for %s: %w", userID, err)
	}
	return nil
}

// ListsForUser returns the user's saved lists, newest first.
func (r *Repository) ListsForUser(ctx context.Context, userID string) ([]domain.ShoppingListSummary, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	res, err := r.client.ExecuteRead(ctx, listsForUserCypher, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("lists for %s: %w", userID, err)
	}

	lists := make([]domain.ShoppingListSummary, 0, len(res.Records))
	for _, record := range res.Records {
		lists = append(lists, domain.ShoppingListSummary{
			ID:        record.String("listId"),
			UserID:    userID,
			TotalCost: record.Float("totalCost"),
			ItemCount: int(record.Int("itemCount")),
			CreatedAt: toTime(record["createdAt"]),
		})
	}
	return lists, nil
}

// CoPurchased returns products saved in the same lists as productIDs. The
// confidence of a product is the number of pairings divided by the number of
// saved lists; only products above MinCoPurchaseConfidence are kept.
func (r *Repository) CoPurchased(ctx context.Context, productIDs []int64, limit int) ([]domain.Recommendation, error) {
	if len(productIDs) == 0 {
		return []domain.Recommendation{}, nil
	}
	if limit <= 0 {
		limit = defaultCoPurchaseLimit
	}

	params := map[string]any{
		"productIds":    productIDs,
		"minConfidence": MinCoPurchaseConfidence,
		"limit":         limit,
	}
	res, err := r.client.ExecuteRead(ctx, coPurchasedCypher, params)
	if err != nil {
		return nil, fmt.Errorf("co-purchased products: %w", err)
	}

	recs := make([]domain.Recommendation, 0, len(res.Records))
	for _, record := range res.Records {
		recs = append(recs, domain.Recommendation{
			Product: domain.Product{
				ID:       record.Int("productId"),
				Name:     record.String("name"),
				Category: record.String("category"),
				Brand:    record.String("brand"),
				Price:    record.Float("price"),
				Weight:   record.Float("weight"),
			},
			Confidence: record.Float("confidence"),
			Source:     domain.SourceCoPurchase,
		})
	}
	return recs, nil
}

func itemParams(items []domain.CartItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"productId":  item.ProductID,
			"name":       item.Name,
			"category":   item.Category,
			"brand":      item.Brand,
			"price":      item.Price,
			"weight":     item.Weight,
			"quantity":   item.Quantity,
			"totalPrice": item.LineTotal(),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toTime(val any) time.Time {
	switch v := val.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

const saveSelectionCypher = `
MERGE (u:User {userId: $userId})
CREATE (l:ShoppingList {
	listId: $listId,
	totalCost: $totalCost,
	itemCount: $itemCount,
	createdAt: datetime($createdAt)
})
CREATE (u)-[:SAVED]->(l)
FOREACH (item IN $items |
	MERGE (p:Product {productId: item.productId})
	SET p.name = item.name,
		p.category = item.category,
		p.brand = item.brand,
		p.price = item.price,
		p.weight = item.weight
	CREATE (l)-[:CONTAINS {quantity: item.quantity, totalPrice: item.totalPrice}]->(p)
)
RETURN l.listId AS listId
`

const replaceBudgetItemsCypher = `
MERGE (u:User {userId: $userId})
WITH u
OPTIONAL MATCH (u)-[:WANTS]->(old:BudgetItem)
DETACH DELETE old
WITH DISTINCT u
FOREACH (name IN $items |
	CREATE (u)-[:WANTS]->(:BudgetItem {
		name: name,
		budget: $budget,
		quantity: 1,
		createdAt: datetime($createdAt)
	})
)
`

const listsForUserCypher = `
MATCH (:User {userId: $userId})-[:SAVED]->(l:ShoppingList)
RETURN l.listId AS listId,
       l.totalCost AS totalCost,
       l.itemCount AS itemCount,
       l.createdAt AS createdAt
ORDER BY l.createdAt DESC
`

const coPurchasedCypher = `
MATCH (all:ShoppingList)
WITH count(all) AS totalLists
MATCH (seed:Product)<-[:CONTAINS]-(:ShoppingList)-[:CONTAINS]->(other:Product)
WHERE seed.productId IN $productIds
  AND NOT other.productId IN $productIds
WITH totalLists, other, count(*) AS together
WITH other, together, toFloat(together) / totalLists AS confidence
WHERE confidence > $minConfidence
RETURN other.productId AS productId,
       other.name AS name,
       other.category AS category,
       other.brand AS brand,
       other.price AS price,
       other.weight AS weight,
       confidence
ORDER BY confidence DESC, together DESC, productId ASC
LIMIT $limit
`
