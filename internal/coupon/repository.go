package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Normalize uppercases a code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT id, code, discount_type, value, min_order_paise, is_active,
		       usage_limit, used_count, start_date, end_date, created_at
		FROM coupons
		WHERE code = $1`

	var c Coupon
	var usageLimit sql.NullInt64
	var startDate, endDate sql.NullTime

	err := r.db.QueryRowContext(ctx, query, Normalize(code)).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.MinOrderPaise, &c.IsActive,
		&usageLimit, &c.UsedCount, &startDate, &endDate, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}

	if usageLimit.Valid {
		c.UsageLimit = &usageLimit.Int64
	}
	if startDate.Valid {
		c.StartDate = &startDate.Time
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}

	return &c, nil
}
