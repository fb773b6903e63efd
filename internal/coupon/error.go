package coupon

import "errors"

var (
	ErrInvalid    = errors.New("coupon invalid or expired")
	ErrMinOrder   = errors.New("order below coupon minimum")
	ErrExhausted  = errors.New("coupon usage limit reached")
	ErrNotStarted = errors.New("coupon not yet active")
)
