package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// Repository is the pipeline's narrow view of the catalog: authoritative
// price, stock, title and image by product id. Order creation never
// trusts client-submitted prices for catalog items.
type Repository interface {
	GetForCheckout(ctx context.Context, productID int64) (*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetForCheckout(ctx context.Context, productID int64) (*Product, error) {
	query := `SELECT id, title, price_paise, stock, image_url FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ID, &p.Title, &p.PricePaise, &p.Stock, &p.ImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	return &p, nil
}
