package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

func TestRunOverdueSweeper_CancelsUntilStopped(t *testing.T) {
	f := setup(t)
	p := f.product(t, "Aspirin", "ASP", "2", 5)
	o := f.placeOrder(t, f.customer.ID, p.ID, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.Orders.RunOverdueSweeper(ctx, 5*time.Millisecond, -time.Hour) }()

	deadline := time.After(2 * time.Second)
	for {
		got, err := f.svc.Orders.Get(context.Background(), SystemScope(), o.OrderNumber)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status == models.OrderStatusCancelled {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("sweeper never cancelled the order")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("sweeper returned %v", err)
	}
	if s := f.stock(t, p.ID); s != 5 {
		t.Fatalf("stock not restored: %d", s)
	}
}

// listHook runs after once, right after the first List returns, so the work lands between the
// sweeper picking up its batch and cancelling it.
type listHook struct {
	repository.Orders
	once  sync.Once
	after func()
}

func (h *listHook) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, error) {
	out, err := h.Orders.List(ctx, f)
	h.once.Do(h.after)
	return out, err
}

func TestCancelOverdue_SkipsOrdersSettledAfterListing(t *testing.T) {
	cases := map[string]func(t *testing.T, f *fixture, o *models.Order){
		"staff confirmed": func(t *testing.T, f *fixture, o *models.Order) {
			_, err := f.svc.Orders.UpdateStatus(context.Background(), f.pharmacy.ID, f.staff.ID, o.OrderNumber,
				StatusUpdate{Status: models.OrderStatusConfirmed})
			if err != nil {
				t.Errorf("confirm: %v", err)
			}
		},
		"payment succeeded": func(t *testing.T, f *fixture, o *models.Order) {
			ctx := context.Background()
			pay, err := f.svc.Payments.CreatePayment(ctx, f.customer.ID, o.OrderNumber)
			if err != nil {
				t.Errorf("payment: %v", err)
				return
			}
			if _, err := f.svc.Payments.HandleCallback(ctx, CallbackInput{Status: "SUCCESS", ConversationID: pay.ConversationID}); err != nil {
				t.Errorf("callback: %v", err)
			}
		},
	}

	for name, settle := range cases {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			p := f.product(t, "Syrup", "SYR", "12", 10)
			o := f.placeOrder(t, f.customer.ID, p.ID, 2)

			f.reg.Orders = &listHook{Orders: f.reg.Orders, after: func() { settle(t, f, o) }}
			f.svc.Orders.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }

			n, err := f.svc.Orders.CancelOverdue(ctx, 24*time.Hour)
			if err != nil {
				t.Fatalf("sweep: %v", err)
			}
			if n != 0 {
				t.Fatalf("expected no cancellations, got %d", n)
			}
			got, err := f.svc.Orders.Get(ctx, SystemScope(), o.OrderNumber)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != models.OrderStatusConfirmed {
				t.Fatalf("status: %s", got.Status)
			}
			if s := f.stock(t, p.ID); s != 8 {
				t.Fatalf("stock restored for a settled order: %d", s)
			}
		})
	}
}
