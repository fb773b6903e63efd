package coupon

import "time"

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFlat    DiscountType = "FLAT"
)

type Coupon struct {
	ID            int64
	Code          string
	DiscountType  DiscountType
	Value         int64 // percent points, or paise for flat coupons
	MinOrderPaise int64
	IsActive      bool
	UsageLimit    *int64 // nil = unlimited
	UsedCount     int64
	StartDate     *time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
}
