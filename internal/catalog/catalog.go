// Package catalog serves grocery products out of SQLite: candidate lookup
// for desired items, category queries for recommendations and the
// alternative-product links.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/store"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// ErrInvalidProduct is returned when a product carries a negative price or
// weight.
var ErrInvalidProduct = errors.New("catalog: invalid product")

const productColumns = `id, name, category, brand, price, stock_quantity, weight`

// Repository reads and writes the product tables.
type Repository struct {
	db *sql.DB
}

// New migrates the catalog schema and returns a repository over s.
func New(ctx context.Context, s *store.SQLiteStore) (*Repository, error) {
	if err := s.Migrate(ctx, "catalog", migrations); err != nil {
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Repository{db: s.DB()}, nil
}

// Fetch returns the candidates for one desired item. The term picks the
// first category containing a product whose name matches; products from
// that category whose name matches are returned cheapest first.
func (r *Repository) Fetch(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}, nil
	}
	pattern := likePattern(term)

	var category string
	err := r.db.QueryRowContext(ctx,
		`SELECT category FROM products WHERE name LIKE ? ESCAPE '\' ORDER BY id LIMIT 1`,
		pattern,
	).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve category for %q: %w", term, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE category = ? AND name LIKE ? ESCAPE '\'
		 ORDER BY price ASC, id ASC`,
		category, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch products for %q: %w", term, err)
	}
	return scanProducts(rows)
}

// Query returns every product in category except excludeIDs, ordered by id.
func (r *Repository) Query(ctx context.Context, category string, excludeIDs []int64) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = ?`
	args := []any{category}
	if len(excludeIDs) > 0 {
		query += ` AND id NOT IN (` + placeholders(len(excludeIDs)) + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category %q: %w", category, err)
	}
	return scanProducts(rows)
}

// Get returns a single product.
func (r *Repository) Get(ctx context.Context, id int64) (domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, ErrNotFound
	}
	return products[0], nil
}

// Alternatives returns the products linked as substitutes for productID.
func (r *Repository) Alternatives(ctx context.Context, productID int64) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.category, p.brand, p.price, p.stock_quantity, p.weight
		 FROM products p
		 JOIN alternative_products ap ON p.id = ap.alternative_id
		 WHERE ap.product_id = ?
		 ORDER BY p.price ASC, p.id ASC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("alternatives for %d: %w", productID, err)
	}
	return scanProducts(rows)
}

// Upsert inserts the product or replaces the stored row with the same id.
func (r *Repository) Upsert(ctx context.Context, p domain.Product) error {
	if p.Price < 0 || p.Weight < 0 {
		return fmt.Errorf("upsert product %d: price %v and weight %v must be non-negative: %w", p.ID, p.Price, p.Weight, ErrInvalidProduct)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			brand = excluded.brand,
			price = excluded.price,
			stock_quantity = excluded.stock_quantity,
			weight = excluded.weight`,
		p.ID, p.Name, p.Category, p.Brand, p.Price, p.StockQuantity, p.Weight,
	)
	if err != nil {
		return fmt.Errorf("upsert product %d: %w", p.ID, err)
	}
	return nil
}

// AddAlternative links alternativeID as a substitute for productID. Adding an
// existing link is a no-op.
func (r *Repository) AddAlternative(ctx context.Context, productID, alternativeID int64) error {
	if productID == alternativeID {
		return fmt.Errorf("product %d cannot be its own alternative", productID)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alternative_products (product_id, alternative_id) VALUES (?, ?)`,
		productID, alternativeID,
	)
	if err != nil {
		return fmt.Errorf("link alternative %d -> %d: %w", productID, alternativeID, err)
	}
	return nil
}

// Count returns the number of stored products.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Price, &p.StockQuantity, &p.Weight); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
