// Package services holds the business rules: catalog, accounts, the cart aggregate,
// checkout, the order state machine, the inventory ledger and payment results.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/audit"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Services bundles every service sharing one registry.
type Services struct {
	Accounts *AccountService
	Catalog  *CatalogService
	Carts    *CartService
	Orders   *OrderService
	Payments *PaymentService
}

func New(reg *repository.Registry, rec *audit.Recorder, logger *zap.Logger, rates ShippingRates) *Services {
	ledger := NewLedger(reg.Products)
	carts := NewCartService(reg, logger)
	orders := NewOrderService(reg, carts, ledger, rates, rec, logger)
	return &Services{
		Accounts: NewAccountService(reg, logger),
		Catalog:  NewCatalogService(reg, logger),
		Carts:    carts,
		Orders:   orders,
		Payments: NewPaymentService(reg, orders, rec, logger),
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// notFound converts repository.ErrNotFound into the typed error and passes anything else through.
func notFound(err error, resource string, key any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, key)
	}
	return err
}

const maxSlugAttempts = 5

// withUniqueSlug calls create with slug(name), then slug(name)-2, -3 ... while the slug key collides.
// Other duplicate keys are reported as DuplicateResource for resource.
func withUniqueSlug(ctx context.Context, name, resource string, create func(ctx context.Context, s string) error) error {
	base := slug.Make(name)
	if base == "" {
		return apperrors.Validation("name must contain letters or digits")
	}
	candidate := base
	for attempt := 1; ; attempt++ {
		err := create(ctx, candidate)
		var dup *repository.DuplicateError
		if !errors.As(err, &dup) {
			return err
		}
		if dup.Field != "slug" {
			return apperrors.Duplicate(resource, dup.Field)
		}
		if attempt == maxSlugAttempts {
			return apperrors.Duplicate(resource, "name")
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt+1)
	}
}
