package memstore

import (
	"context"
	"sort"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Orders implements repository.Orders.
type Orders struct{ store *Store }

var _ repository.Orders = (*Orders)(nil)

func (r *Orders) NextSequence(ctx context.Context, year int) (int64, error) {
	defer r.store.wlock(ctx)()
	r.store.orderSeq[year]++
	return r.store.orderSeq[year], nil
}

func (r *Orders) Create(ctx context.Context, o *models.Order) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.orders {
		if existing.OrderNumber == o.OrderNumber {
			return &repository.DuplicateError{Field: "order_number"}
		}
	}
	o.ID = r.store.id("orders")
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Items = nil
	r.store.orders[o.ID] = stored
	return nil
}

func (r *Orders) AddItem(ctx context.Context, item *models.OrderItem) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.orders[item.OrderID]; !ok {
		return repository.ErrNotFound
	}
	item.ID = r.store.id("order_items")
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	r.store.orderItems[item.ID] = *item
	return nil
}

// withItems attaches the order lines; the caller holds a lock.
func (r *Orders) withItems(o models.Order) *models.Order {
	items := make([]models.OrderItem, 0)
	for _, item := range r.store.orderItems {
		if item.OrderID == o.ID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	o.Items = items
	return &o
}

func (r *Orders) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	defer r.store.rlock(ctx)()
	for _, o := range r.store.orders {
		if o.OrderNumber == orderNumber {
			return r.withItems(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

// LockByNumber needs no extra work: a transaction already holds the store's write lock.
func (r *Orders) LockByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.GetByNumber(ctx, orderNumber)
}

func (r *Orders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	defer r.store.rlock(ctx)()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withItems(o), nil
}

func (r *Orders) Update(ctx context.Context, o *models.Order) error {
	defer r.store.wlock(ctx)()
	existing, ok := r.store.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// only the mutable columns are written, mirroring the SQL UPDATE
	existing.Status = o.Status
	existing.TrackingNumber = o.TrackingNumber
	existing.CargoCompany = o.CargoCompany
	existing.CancellationReason = o.CancellationReason
	existing.CancelledBy = o.CancelledBy
	existing.CancelledAt = o.CancelledAt
	existing.ConfirmedAt = o.ConfirmedAt
	existing.PreparingAt = o.PreparingAt
	existing.ShippedAt = o.ShippedAt
	existing.DeliveredAt = o.DeliveredAt
	existing.UpdatedAt = now()
	r.store.orders[o.ID] = existing
	o.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *Orders) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, error) {
	defer r.store.rlock(ctx)()
	out := make([]models.Order, 0)
	for _, o := range r.store.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.PharmacyID != nil && o.PharmacyID != *f.PharmacyID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CreatedBefore != nil && !o.CreatedAt.Before(*f.CreatedBefore) {
			continue
		}
		out = append(out, o)
	}
	// newest first, like ORDER BY created_at DESC
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Payments implements repository.Payments.
type Payments struct{ store *Store }

var _ repository.Payments = (*Payments)(nil)

func (r *Payments) Create(ctx context.Context, p *models.Payment) error {
	defer r.store.wlock(ctx)()
	for _, existing := range r.store.payments {
		if existing.OrderID == p.OrderID {
			return &repository.DuplicateError{Field: "order_id"}
		}
		if existing.ConversationID == p.ConversationID {
			return &repository.DuplicateError{Field: "conversation_id"}
		}
	}
	p.ID = r.store.id("payments")
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	r.store.payments[p.ID] = *p
	return nil
}

func (r *Payments) GetByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	defer r.store.rlock(ctx)()
	for _, p := range r.store.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Payments) GetByConversationID(ctx context.Context, conversationID string) (*models.Payment, error) {
	defer r.store.rlock(ctx)()
	for _, p := range r.store.payments {
		if p.ConversationID == conversationID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Payments) Update(ctx context.Context, p *models.Payment) error {
	defer r.store.wlock(ctx)()
	existing, ok := r.store.payments[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now()
	r.store.payments[p.ID] = *p
	return nil
}
