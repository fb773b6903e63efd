package pricing

import "storefront-be/internal/money"

type PaymentMethod string

const (
	MethodPrepaid PaymentMethod = "prepaid"
	MethodCOD     PaymentMethod = "cod"
)

func ParseMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case MethodPrepaid, MethodCOD:
		return PaymentMethod(s), true
	}
	return "", false
}

// prepaid orders get a flat percentage off the subtotal, floored to a
// whole rupee so the displayed discount is a round number.
const prepaidDiscountPct = 10

type Line struct {
	UnitPricePaise int64
	Quantity       int
}

// Config carries the store's shipping and COD charges, already merged
// from env defaults and the StoreSettings row.
type Config struct {
	FreeShippingMinPaise int64
	FlatRatePaise        int64
	CODFeePaise          int64
}

// Quote is the full price breakdown for a cart. The same inputs always
// produce the same Quote; cart display and order creation both call
// Compute and must agree.
type Quote struct {
	SubtotalPaise        int64
	CouponDiscountPaise  int64
	PrepaidDiscountPaise int64
	ShippingPaise        int64
	CODFeePaise          int64
	TotalPaise           int64
}

// DiscountPaise is the combined deduction recorded on the order.
func (q Quote) DiscountPaise() int64 {
	return q.CouponDiscountPaise + q.PrepaidDiscountPaise
}

// Compute prices a cart. couponDiscount comes from the coupon validator
// and is clamped so it never exceeds the subtotal.
func Compute(lines []Line, method PaymentMethod, couponDiscount int64, cfg Config) Quote {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPricePaise * int64(l.Quantity)
	}

	var prepaidDiscount, codFee int64
	switch method {
	case MethodPrepaid:
		prepaidDiscount = money.FloorToRupee(money.Percent(subtotal, prepaidDiscountPct))
	case MethodCOD:
		codFee = cfg.CODFeePaise
	}

	// The combined discount never exceeds the subtotal, which keeps the
	// recorded breakdown consistent: total = subtotal - discount + shipping + fee.
	if couponDiscount > subtotal-prepaidDiscount {
		couponDiscount = subtotal - prepaidDiscount
	}

	var shipping int64
	if subtotal < cfg.FreeShippingMinPaise {
		shipping = cfg.FlatRatePaise
	}

	goods := subtotal - couponDiscount - prepaidDiscount

	return Quote{
		SubtotalPaise:        subtotal,
		CouponDiscountPaise:  couponDiscount,
		PrepaidDiscountPaise: prepaidDiscount,
		ShippingPaise:        shipping,
		CODFeePaise:          codFee,
		TotalPaise:           goods + shipping + codFee,
	}
}
