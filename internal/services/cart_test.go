package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/models"
)

func TestCart_AddSumsAndRevalidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Aspirin", "ASP", "2.50", 5)

	if _, err := f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("quantities not summed: %+v", cart.Items)
	}
	if !cart.Subtotal().Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("subtotal: %s", cart.Subtotal())
	}

	_, err = f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 1)
	expectCode(t, err, apperrors.CodeInsufficientStock)

	cart, _ = f.svc.Carts.View(ctx, f.customer.ID, f.pharmacy.ID)
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("failed add changed the cart")
	}
}

func TestCart_AddRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Aspirin", "ASP", "2", 5)

	_, err := f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 0)
	expectCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, 9999, 1)
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Carts.AddItem(ctx, f.customer.ID, 9999, p.ID, 1)
	expectCode(t, err, apperrors.CodeNotFound)

	inactive := false
	if _, err := f.svc.Catalog.UpdateProduct(ctx, f.pharmacy.ID, p.ID, ProductInput{
		CategoryID: f.category.ID, Name: p.Name, SKU: p.SKU, Price: p.Price, StockQuantity: 5, Active: &inactive,
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 1)
	expectCode(t, err, apperrors.CodeProductUnavailable)
}

func TestCart_ProductFromAnotherPharmacyIsHidden(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Aspirin", "ASP", "2", 5)
	other, err := f.svc.Accounts.CreatePharmacy(ctx, PharmacyInput{Name: "Elsewhere"})
	if err != nil {
		t.Fatalf("pharmacy: %v", err)
	}
	_, err = f.svc.Carts.AddItem(ctx, f.customer.ID, other.ID, p.ID, 1)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestCart_UpdateQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Aspirin", "ASP", "2", 5)

	_, err := f.svc.Carts.UpdateQuantity(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 2)
	expectCode(t, err, apperrors.CodeNotFound)

	if _, err := f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := f.svc.Carts.UpdateQuantity(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 4)
	if err != nil || cart.Items[0].Quantity != 4 {
		t.Fatalf("update: %v", err)
	}

	_, err = f.svc.Carts.UpdateQuantity(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 6)
	expectCode(t, err, apperrors.CodeInsufficientStock)

	cart, err = f.svc.Carts.UpdateQuantity(ctx, f.customer.ID, f.pharmacy.ID, p.ID, 0)
	if err != nil || !cart.IsEmpty() {
		t.Fatalf("zero quantity should remove the line: %v", err)
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "Aspirin", "ASP", "2", 5)
	q := f.product(t, "Zinc", "ZN", "3", 5)

	for _, id := range []int64{p.ID, q.ID} {
		if _, err := f.svc.Carts.AddItem(ctx, f.customer.ID, f.pharmacy.ID, id, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	cart, err := f.svc.Carts.RemoveItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID)
	if err != nil || len(cart.Items) != 1 || cart.Items[0].ProductID != q.ID {
		t.Fatalf("remove: %v %+v", err, cart)
	}
	// removing twice is harmless
	if _, err := f.svc.Carts.RemoveItem(ctx, f.customer.ID, f.pharmacy.ID, p.ID); err != nil {
		t.Fatalf("remove again: %v", err)
	}
	cart, err = f.svc.Carts.Clear(ctx, f.customer.ID, f.pharmacy.ID)
	if err != nil || !cart.IsEmpty() {
		t.Fatalf("clear: %v", err)
	}
}

func TestCart_OneCartPerCustomerAndPharmacy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.svc.Carts.GetOrCreate(ctx, f.customer.ID, f.pharmacy.ID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	b, err := f.svc.Carts.GetOrCreate(ctx, f.customer.ID, f.pharmacy.ID)
	if err != nil || a.ID != b.ID {
		t.Fatalf("expected the same cart: %v", err)
	}
}

func TestCart_Validate(t *testing.T) {
	f := setup(t)
	expectCode(t, f.svc.Carts.Validate(&models.Cart{}), apperrors.CodeEmptyCart)

	short := &models.Product{ID: 3, Active: true, StockQuantity: 1, Price: decimal.NewFromInt(1)}
	ok := &models.Product{ID: 4, Active: true, StockQuantity: 9, Price: decimal.NewFromInt(1)}
	cart := &models.Cart{Items: []models.CartItem{
		{ProductID: 3, Quantity: 2, Product: short},
		{ProductID: 4, Quantity: 2, Product: ok},
	}}
	err := f.svc.Carts.Validate(cart)
	expectCode(t, err, apperrors.CodeCartItemsUnavailable)
	appErr, _ := apperrors.As(err)
	ids := appErr.Details.(map[string]any)["productIds"].([]int64)
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("unavailable ids: %v", ids)
	}
}
