package settings

import (
	"context"
	"database/sql"
	"errors"
)

// StoreSettings is a singleton row; the pipeline only reads it to
// override the shipping defaults from env.
type StoreSettings struct {
	FreeShippingMinPaise  int64
	ShippingFlatRatePaise int64
	HeroImageURL          *string
}

type Repository interface {
	Get(ctx context.Context) (*StoreSettings, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*StoreSettings, error) {
	query := `SELECT free_shipping_min_paise, shipping_flat_rate_paise, hero_image_url
		FROM store_settings LIMIT 1`

	var s StoreSettings
	var hero sql.NullString
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.FreeShippingMinPaise, &s.ShippingFlatRatePaise, &hero,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// No row yet: callers fall back to env defaults.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if hero.Valid {
		s.HeroImageURL = &hero.String
	}
	return &s, nil
}
