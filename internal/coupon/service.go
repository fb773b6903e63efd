package coupon

import (
	"context"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/money"

	"go.uber.org/zap"
)

type Service interface {
	// Validate checks a code against the current subtotal and returns the
	// discount in paise. Callers must re-validate whenever the subtotal
	// changes: a coupon valid at one subtotal may fail at another.
	Validate(ctx context.Context, code string, subtotalPaise int64) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Validate(ctx context.Context, code string, subtotalPaise int64) (int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("coupon_code", Normalize(code)),
		zap.Int64("subtotal_paise", subtotalPaise),
	)

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		log.Warn("coupon lookup failed", zap.Error(err))
		return 0, err
	}

	now := s.now()

	if !c.IsActive {
		log.Warn("coupon inactive")
		return 0, ErrInvalid
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return 0, ErrNotStarted
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		log.Warn("coupon expired", zap.Time("end_date", *c.EndDate))
		return 0, ErrInvalid
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		log.Warn("coupon exhausted", zap.Int64("used_count", c.UsedCount))
		return 0, ErrExhausted
	}
	if subtotalPaise < c.MinOrderPaise {
		return 0, ErrMinOrder
	}

	var discount int64
	switch c.DiscountType {
	case DiscountPercent:
		discount = money.Percent(subtotalPaise, c.Value)
	case DiscountFlat:
		discount = c.Value
	default:
		return 0, ErrInvalid
	}

	if discount > subtotalPaise {
		discount = subtotalPaise
	}

	log.Info("coupon applied", zap.Int64("discount_paise", discount))
	return discount, nil
}
