package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCustomer     = errors.New("invalid customer details")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrPriceTampering      = errors.New("custom item price not allowed")
	ErrCODBelowMinimum     = errors.New("order below COD minimum")
	ErrFraudBlocked        = errors.New("COD not available for this customer")
	ErrInvalidStatus       = errors.New("unrecognized order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTerminalState       = errors.New("order is in a terminal state")
	ErrAlreadyShipped      = errors.New("order already shipped")
	ErrNotShippable        = errors.New("order not in shippable status")
	ErrPaymentVerification = errors.New("payment verification failed")
)
