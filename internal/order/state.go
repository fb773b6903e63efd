package order

import "fmt"

// transitions is the authoritative state machine. The same table guards
// payment callbacks, admin actions and shipping updates.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusUnverified: {
		StatusPaid:       true,
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusPaid: {
		StatusProcessing: true,
		StatusPrinting:   true,
		StatusShipped:    true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusPrinting:  true,
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusPrinting: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusRefunded:  true,
		StatusCancelled: true,
	},
	StatusDelivered: {
		StatusRefunded: true,
	},
	// CANCELLED and REFUNDED are final.
	StatusCancelled: {},
	StatusRefunded:  {},
}

// adminStatuses is the closed set an admin may request. Arbitrary
// strings are rejected before any persistence write.
var adminStatuses = map[Status]bool{
	StatusPaid:       true,
	StatusProcessing: true,
	StatusPrinting:   true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
	StatusRefunded:   true,
}

func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// Shippable reports whether a label may be generated for an order in
// this status.
func (o *Order) Shippable() bool {
	return (o.Status == StatusPaid || o.Status == StatusProcessing) && o.TrackingNumber == nil
}

// ParseAdminStatus validates an admin-supplied target status.
func ParseAdminStatus(raw string) (Status, error) {
	s := Status(raw)
	if !adminStatuses[s] {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// CheckTransition returns nil when from→to is a legal move.
func CheckTransition(from, to Status) error {
	if from == StatusDelivered && to == StatusRefunded {
		return nil
	}
	if IsTerminal(from) {
		return fmt.Errorf("%w: order is %s", ErrTerminalState, from)
	}
	if !transitions[from][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
