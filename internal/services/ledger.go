package services

import (
	"context"
	"errors"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Ledger applies atomic stock adjustments to single product rows.
// It has no reservation concept: stock leaves on order creation and returns on cancellation.
type Ledger struct {
	products repository.Products
}

func NewLedger(products repository.Products) *Ledger {
	return &Ledger{products: products}
}

// Decrement removes qty units or fails with InsufficientStock without touching the row.
func (l *Ledger) Decrement(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperrors.Validation("quantity must be positive")
	}
	err := l.products.DecrementStock(ctx, productID, qty)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.InsufficientStock(productID, qty)
	default:
		return notFound(err, "product", productID)
	}
}

// Restore returns qty units to the product.
func (l *Ledger) Restore(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperrors.Validation("quantity must be positive")
	}
	return notFound(l.products.IncrementStock(ctx, productID, qty), "product", productID)
}
