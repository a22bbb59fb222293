package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Carts implements repository.Carts.
type Carts struct{ store *Store }

var _ repository.Carts = (*Carts)(nil)

func (r *Carts) GetByCustomerAndPharmacy(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	defer r.store.rlock(ctx)()
	for _, c := range r.store.carts {
		if c.CustomerID == customerID && c.PharmacyID == pharmacyID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Carts) Create(ctx context.Context, c *models.Cart) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.carts {
		if existing.CustomerID == c.CustomerID && existing.PharmacyID == c.PharmacyID {
			return &repository.DuplicateError{Field: "customer_pharmacy"}
		}
	}
	c.ID = r.store.id("carts")
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.Items = nil
	r.store.carts[c.ID] = stored
	return nil
}

// Lock only checks existence: the store lock already serializes every writer.
func (r *Carts) Lock(ctx context.Context, cartID int64) error {
	defer r.store.rlock(ctx)()
	if _, ok := r.store.carts[cartID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Carts) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	defer r.store.rlock(ctx)()
	out := make([]models.CartItem, 0)
	for _, item := range r.store.cartItems {
		if item.CartID != cartID {
			continue
		}
		if p, ok := r.store.products[item.ProductID]; ok {
			item.Product = &p
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Carts) GetItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	defer r.store.rlock(ctx)()
	for _, item := range r.store.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			if p, ok := r.store.products[item.ProductID]; ok {
				item.Product = &p
			}
			return &item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Carts) SaveItem(ctx context.Context, item *models.CartItem) error {
	defer r.store.wlock(ctx)()
	ts := now()
	for id, existing := range r.store.cartItems {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			existing.Quantity = item.Quantity
			existing.UpdatedAt = ts
			r.store.cartItems[id] = existing
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			item.UpdatedAt = ts
			r.touch(item.CartID, ts)
			return nil
		}
	}
	item.ID = r.store.id("cart_items")
	item.CreatedAt = ts
	item.UpdatedAt = ts
	stored := *item
	stored.Product = nil
	r.store.cartItems[item.ID] = stored
	r.touch(item.CartID, ts)
	return nil
}

func (r *Carts) DeleteItem(ctx context.Context, cartID, productID int64) error {
	defer r.store.wlock(ctx)()
	for id, item := range r.store.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			delete(r.store.cartItems, id)
			r.touch(cartID, now())
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *Carts) Clear(ctx context.Context, cartID int64) error {
	defer r.store.wlock(ctx)()
	for id, item := range r.store.cartItems {
		if item.CartID == cartID {
			delete(r.store.cartItems, id)
		}
	}
	r.touch(cartID, now())
	return nil
}

// touch bumps updated_at; the caller holds the write lock.
func (r *Carts) touch(cartID int64, ts time.Time) {
	c, ok := r.store.carts[cartID]
	if !ok {
		return
	}
	c.UpdatedAt = ts
	r.store.carts[cartID] = c
}
