package models

import (
	"testing"
	"time"
)

func TestTransitions_StaffTable(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
		OrderStatusPreparing: {OrderStatusShipped},
		OrderStatusShipped:   {OrderStatusDelivered},
	}
	for _, from := range AllOrderStatuses() {
		for _, to := range AllOrderStatuses() {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to, TriggerStaff); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitions_PaymentEdgesOnlyFromPending(t *testing.T) {
	for _, from := range AllOrderStatuses() {
		for _, to := range AllOrderStatuses() {
			want := from == OrderStatusPending && (to == OrderStatusConfirmed || to == OrderStatusPaymentFailed)
			if got := from.CanTransitionTo(to, TriggerPayment); got != want {
				t.Errorf("payment %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
	if OrderStatusPending.CanTransitionTo(OrderStatusPaymentFailed, TriggerStaff) {
		t.Fatalf("staff must not set PAYMENT_FAILED")
	}
}

func TestCancellable_AgreesWithTable(t *testing.T) {
	for _, st := range AllOrderStatuses() {
		if st.IsCancellable() != st.CanTransitionTo(OrderStatusCancelled, TriggerStaff) {
			t.Errorf("%s: cancellable set disagrees with transition table", st)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusDelivered:     true,
		OrderStatusCancelled:     true,
		OrderStatusPaymentFailed: true,
	}
	for _, st := range AllOrderStatuses() {
		if st.IsTerminal() != terminal[st] {
			t.Errorf("%s: terminal=%v", st, st.IsTerminal())
		}
	}
	if OrderStatus("LOST").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}

func TestStampStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	o := &Order{Status: OrderStatusPending}
	o.StampStatus(OrderStatusConfirmed, now)
	if o.Status != OrderStatusConfirmed || o.ConfirmedAt == nil || !o.ConfirmedAt.Equal(now) || !o.UpdatedAt.Equal(now) {
		t.Fatalf("confirm not stamped: %+v", o)
	}
	if o.PreparingAt != nil || o.ShippedAt != nil || o.DeliveredAt != nil || o.CancelledAt != nil {
		t.Fatalf("unrelated timestamps stamped")
	}
}
