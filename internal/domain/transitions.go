package domain

import "fmt"

// Progress weight per status. A transition may only move forward through the
// sequence; cancelled carries the highest weight so it is reachable from any
// earlier state and terminal once reached.
var statusWeights = map[string]int{
	OrderStatusPending:        10,
	OrderStatusConfirmed:      20,
	OrderStatusPreparing:      30,
	OrderStatusReadyForPickup: 40,
	OrderStatusOutForDelivery: 50,
	OrderStatusDelivered:      60,
	OrderStatusCancelled:      70,
}

// ValidateTransition enforces the order lifecycle: statuses advance
// monotonically through the sequence, and cancelled is a terminal state
// reachable from any non-delivered status.
func ValidateTransition(from, to string) error {
	fromWeight, okFrom := statusWeights[from]
	toWeight, okTo := statusWeights[to]
	if !okFrom || !okTo {
		return fmt.Errorf("unknown order status in transition %q -> %q", from, to)
	}

	if from == OrderStatusCancelled {
		return fmt.Errorf("order is cancelled and cannot change status")
	}
	if from == OrderStatusDelivered {
		return fmt.Errorf("order is delivered and cannot change status")
	}
	if to == OrderStatusCancelled {
		return nil
	}
	if toWeight <= fromWeight {
		return fmt.Errorf("invalid transition: cannot go from %q to %q", from, to)
	}
	return nil
}

// NextStatuses returns the statuses reachable from the given one, in
// lifecycle order.
func NextStatuses(from string) []string {
	fromWeight, ok := statusWeights[from]
	if !ok || from == OrderStatusCancelled || from == OrderStatusDelivered {
		return nil
	}
	var next []string
	for _, s := range OrderStatuses {
		if statusWeights[s] > fromWeight {
			next = append(next, s)
		}
	}
	return next
}
