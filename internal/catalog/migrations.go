package catalog

import (
	"database/sql"
	"strings"

	"github.com/vanshika/basketwise/internal/store"
)

var migrations = []store.Migration{
	{
		Version:     1,
		Description: "create products table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE products (
					id             INTEGER PRIMARY KEY,
					name           TEXT    NOT NULL,
					category       TEXT    NOT NULL,
					brand          TEXT    NOT NULL DEFAULT '',
					price          REAL    NOT NULL,
					stock_quantity INTEGER NOT NULL DEFAULT 0,
					weight         REAL    NOT NULL DEFAULT 0
				)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_products_category ON products(category, price)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "create alternative_products table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE alternative_products (
					product_id     INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
					alternative_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
					PRIMARY KEY (product_id, alternative_id)
				)`)
			return err
		},
	},
	{
		Version:     3,
		Description: "reject negative product price and weight",
		Up: func(tx *sql.Tx) error {
			for _, event := range []string{"INSERT", "UPDATE"} {
				_, err := tx.Exec(`
					CREATE TRIGGER products_non_negative_` + strings.ToLower(event) + `
					BEFORE ` + event + ` ON products
					WHEN NEW.price < 0 OR NEW.weight < 0
					BEGIN
						SELECT RAISE(ABORT, 'product price and weight must be non-negative');
					END`)
				if err != nil {
					return err
				}
			}
			return nil
		},
	},
}
