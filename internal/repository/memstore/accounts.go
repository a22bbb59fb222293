package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Pharmacies implements repository.Pharmacies.
type Pharmacies struct{ store *Store }

var _ repository.Pharmacies = (*Pharmacies)(nil)

func (r *Pharmacies) Create(ctx context.Context, p *models.Pharmacy) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.pharmacies {
		if existing.Slug == p.Slug {
			return &repository.DuplicateError{Field: "slug"}
		}
	}
	p.ID = r.store.id("pharmacies")
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	r.store.pharmacies[p.ID] = *p
	return nil
}

func (r *Pharmacies) GetByID(ctx context.Context, id int64) (*models.Pharmacy, error) {
	defer r.store.rlock(ctx)()
	p, ok := r.store.pharmacies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// Users implements repository.Users.
type Users struct{ store *Store }

var _ repository.Users = (*Users)(nil)

func (r *Users) Create(ctx context.Context, u *models.User) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	u.ID = r.store.id("users")
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

func (r *Users) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.store.rlock(ctx)()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.store.rlock(ctx)()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Categories implements repository.Categories.
type Categories struct{ store *Store }

var _ repository.Categories = (*Categories)(nil)

func (r *Categories) Create(ctx context.Context, c *models.Category) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.categories {
		if existing.PharmacyID == c.PharmacyID && existing.Slug == c.Slug {
			return &repository.DuplicateError{Field: "slug"}
		}
	}
	c.ID = r.store.id("categories")
	c.CreatedAt = now()
	r.store.categories[c.ID] = *c
	return nil
}

func (r *Categories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	defer r.store.rlock(ctx)()
	c, ok := r.store.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *Categories) ListByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Category, error) {
	defer r.store.rlock(ctx)()
	out := make([]models.Category, 0)
	for _, c := range r.store.categories {
		if c.PharmacyID == pharmacyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AuditLog implements repository.AuditLog.
type AuditLog struct{ store *Store }

var _ repository.AuditLog = (*AuditLog)(nil)

func (r *AuditLog) Insert(ctx context.Context, e *models.AuditEntry) error {
	defer r.store.wlock(ctx)()
	r.store.audit = append(r.store.audit, *e)
	return nil
}
