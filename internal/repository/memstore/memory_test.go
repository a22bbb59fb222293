package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

func seedProduct(t *testing.T, reg *repository.Registry, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		PharmacyID:    1,
		CategoryID:    1,
		Name:          "Vitamin C",
		Slug:          "vitamin-c",
		SKU:           "VC-1",
		Price:         decimal.NewFromInt(10),
		StockQuantity: stock,
		Active:        true,
	}
	if err := reg.Products.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestMemoryStore_ProductUniqueKeys(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	seedProduct(t, reg, 5)

	dupSlug := &models.Product{PharmacyID: 2, Slug: "vitamin-c", SKU: "OTHER"}
	err := reg.Products.Create(ctx, dupSlug)
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) || dup.Field != "slug" {
		t.Fatalf("expected slug duplicate, got %v", err)
	}

	dupSKU := &models.Product{PharmacyID: 1, Slug: "other", SKU: "VC-1"}
	err = reg.Products.Create(ctx, dupSKU)
	if !errors.As(err, &dup) || dup.Field != "sku" {
		t.Fatalf("expected sku duplicate, got %v", err)
	}

	// same sku in another pharmacy is fine
	other := &models.Product{PharmacyID: 2, Slug: "other", SKU: "VC-1"}
	if err := reg.Products.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestMemoryStore_DecrementStock(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	p := seedProduct(t, reg, 3)

	if err := reg.Products.DecrementStock(ctx, p.ID, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := reg.Products.DecrementStock(ctx, p.ID, 2); !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := reg.Products.DecrementStock(ctx, 999, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, _ := reg.Products.GetByID(ctx, p.ID)
	if got.StockQuantity != 1 {
		t.Fatalf("stock expected 1, got %d", got.StockQuantity)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	p := seedProduct(t, reg, 5)
	boom := errors.New("boom")

	err := reg.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := reg.Products.DecrementStock(ctx, p.ID, 4); err != nil {
			return err
		}
		o := &models.Order{OrderNumber: "ORD-2026-00001", PharmacyID: 1, CustomerID: 1, Status: models.OrderStatusPending}
		if err := reg.Orders.Create(ctx, o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := reg.Products.GetByID(ctx, p.ID)
	if got.StockQuantity != 5 {
		t.Fatalf("stock not restored: %d", got.StockQuantity)
	}
	if _, err := reg.Orders.GetByNumber(ctx, "ORD-2026-00001"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("order should be rolled back, got %v", err)
	}
}

func TestMemoryTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	p := seedProduct(t, reg, 5)

	err := reg.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return reg.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			return reg.Products.DecrementStock(ctx, p.ID, 1)
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
	got, _ := reg.Products.GetByID(ctx, p.ID)
	if got.StockQuantity != 4 {
		t.Fatalf("stock expected 4, got %d", got.StockQuantity)
	}
}

func TestMemoryStore_ConcurrentDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	p := seedProduct(t, reg, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Products.DecrementStock(ctx, p.ID, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := reg.Products.GetByID(ctx, p.ID)
	if ok != 10 || got.StockQuantity != 0 {
		t.Fatalf("expected 10 successes and zero stock, got %d and %d", ok, got.StockQuantity)
	}
}

func TestMemoryStore_CartItems(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	p := seedProduct(t, reg, 5)

	cart := &models.Cart{CustomerID: 7, PharmacyID: 1}
	if err := reg.Carts.Create(ctx, cart); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if err := reg.Carts.Create(ctx, &models.Cart{CustomerID: 7, PharmacyID: 1}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate cart, got %v", err)
	}

	if err := reg.Carts.SaveItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := reg.Carts.SaveItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	items, _ := reg.Carts.ListItems(ctx, cart.ID)
	if len(items) != 1 || items[0].Quantity != 3 || items[0].Product == nil {
		t.Fatalf("unexpected items: %+v", items)
	}

	if err := reg.Carts.Clear(ctx, cart.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ = reg.Carts.ListItems(ctx, cart.ID)
	if len(items) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestMemoryStore_OrderListing(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, st := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPending} {
		o := &models.Order{
			OrderNumber: "ORD-2026-0000" + string(rune('1'+i)),
			PharmacyID:  1,
			CustomerID:  int64(10 + i%2),
			Status:      st,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := reg.Orders.Create(ctx, o); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	pending := models.OrderStatusPending
	list, _ := reg.Orders.List(ctx, repository.OrderFilter{Status: &pending})
	if len(list) != 2 || list[0].OrderNumber != "ORD-2026-00003" {
		t.Fatalf("unexpected pending list: %+v", list)
	}

	cutoff := base.Add(90 * time.Minute)
	list, _ = reg.Orders.List(ctx, repository.OrderFilter{CreatedBefore: &cutoff})
	if len(list) != 2 {
		t.Fatalf("expected 2 orders before cutoff, got %d", len(list))
	}

	customer := int64(10)
	list, _ = reg.Orders.List(ctx, repository.OrderFilter{CustomerID: &customer, Limit: 1})
	if len(list) != 1 || list[0].CustomerID != 10 {
		t.Fatalf("unexpected customer list: %+v", list)
	}
}

func TestMemoryStore_SequencesSurviveRollback(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()

	_ = reg.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := reg.Orders.NextSequence(ctx, 2026); err != nil {
			return err
		}
		return errors.New("abort")
	})
	seq, err := reg.Orders.NextSequence(ctx, 2026)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if seq != 2 {
		t.Fatalf("expected gap-tolerant sequence 2, got %d", seq)
	}
	other, _ := reg.Orders.NextSequence(ctx, 2027)
	if other != 1 {
		t.Fatalf("sequence must reset per year, got %d", other)
	}
}

func TestMemoryStore_PaymentUniqueness(t *testing.T) {
	ctx := context.Background()
	reg, _ := New()

	p := &models.Payment{OrderID: 1, ConversationID: "conv-1", Status: models.PaymentStatusPending, Amount: decimal.NewFromInt(30)}
	if err := reg.Payments.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := reg.Payments.Create(ctx, &models.Payment{OrderID: 1, ConversationID: "conv-2"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate order payment, got %v", err)
	}
	got, err := reg.Payments.GetByConversationID(ctx, "conv-1")
	if err != nil || got.ID != p.ID {
		t.Fatalf("lookup by conversation: %v", err)
	}
}
