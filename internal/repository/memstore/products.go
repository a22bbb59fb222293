package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Products implements repository.Products.
type Products struct{ store *Store }

var _ repository.Products = (*Products)(nil)

// checkProductUnique enforces the slug and (pharmacy, sku) unique keys.
func (r *Products) checkProductUnique(p *models.Product) error {
	for id, existing := range r.store.products {
		if id == p.ID {
			continue
		}
		if existing.Slug == p.Slug {
			return &repository.DuplicateError{Field: "slug"}
		}
		if existing.PharmacyID == p.PharmacyID && existing.SKU == p.SKU {
			return &repository.DuplicateError{Field: "sku"}
		}
	}
	return nil
}

func (r *Products) Create(ctx context.Context, p *models.Product) error {
	defer r.store.wlock(ctx)()
	if err := r.checkProductUnique(p); err != nil {
		return err
	}
	p.ID = r.store.id("products")
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	r.store.products[p.ID] = *p
	return nil
}

func (r *Products) Update(ctx context.Context, p *models.Product) error {
	defer r.store.wlock(ctx)()
	existing, ok := r.store.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkProductUnique(p); err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now()
	r.store.products[p.ID] = *p
	return nil
}

func (r *Products) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	defer r.store.rlock(ctx)()
	p, ok := r.store.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *Products) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	defer r.store.rlock(ctx)()
	out := make([]models.Product, 0)
	search := strings.ToLower(f.Search)
	for _, p := range r.store.products {
		if p.PharmacyID != f.PharmacyID {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.FeaturedOnly && !p.Featured {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DecrementStock is the memory twin of the conditional UPDATE: check and write happen under one lock.
func (r *Products) DecrementStock(ctx context.Context, id int64, qty int) error {
	defer r.store.wlock(ctx)()
	p, ok := r.store.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.StockQuantity < qty {
		return repository.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	p.UpdatedAt = now()
	r.store.products[id] = p
	return nil
}

func (r *Products) IncrementStock(ctx context.Context, id int64, qty int) error {
	defer r.store.wlock(ctx)()
	p, ok := r.store.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.StockQuantity += qty
	p.UpdatedAt = now()
	r.store.products[id] = p
	return nil
}
