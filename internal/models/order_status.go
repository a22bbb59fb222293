package models

import "time"

// OrderStatus is the state of an order in its lifecycle.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusConfirmed     OrderStatus = "CONFIRMED"
	OrderStatusPreparing     OrderStatus = "PREPARING"
	OrderStatusShipped       OrderStatus = "SHIPPED"
	OrderStatusDelivered     OrderStatus = "DELIVERED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
)

// Trigger identifies who is allowed to drive a transition.
type Trigger string

const (
	// TriggerStaff covers explicit status changes and cancellations by staff, customers or the system sweeper.
	TriggerStaff Trigger = "staff"
	// TriggerPayment covers edges driven by the payment provider callback.
	TriggerPayment Trigger = "payment"
)

var staffTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
}

var paymentTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusConfirmed, OrderStatusPaymentFailed},
}

// cancellableStatuses must agree with the CANCELLED edges of staffTransitions.
var cancellableStatuses = map[OrderStatus]bool{
	OrderStatusPending:   true,
	OrderStatusConfirmed: true,
}

var allOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusPaymentFailed,
}

// AllOrderStatuses lists every known status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(allOrderStatuses))
	copy(out, allOrderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, known := range allOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge of any trigger leaves s.
func (s OrderStatus) IsTerminal() bool {
	return len(staffTransitions[s]) == 0 && len(paymentTransitions[s]) == 0
}

func (s OrderStatus) IsCancellable() bool {
	return cancellableStatuses[s]
}

// CanTransitionTo reports whether the edge s -> next exists for the given trigger.
func (s OrderStatus) CanTransitionTo(next OrderStatus, trigger Trigger) bool {
	table := staffTransitions
	if trigger == TriggerPayment {
		table = paymentTransitions
	}
	for _, allowed := range table[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s with the given trigger.
func (s OrderStatus) NextStatuses(trigger Trigger) []OrderStatus {
	table := staffTransitions
	if trigger == TriggerPayment {
		table = paymentTransitions
	}
	out := make([]OrderStatus, len(table[s]))
	copy(out, table[s])
	return out
}

// StampStatus moves the order into next and records the phase timestamp for it.
// Legality is checked by the caller.
func (o *Order) StampStatus(next OrderStatus, now time.Time) {
	o.Status = next
	o.UpdatedAt = now
	switch next {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
	case OrderStatusPreparing:
		o.PreparingAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}
}
