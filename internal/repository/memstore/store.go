// Package memstore is an in-process implementation of the repository contracts.
// A single RWMutex guards every table; a transaction holds the write lock for its
// whole duration and restores a snapshot when fn fails.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Store holds every table in memory.
type Store struct {
	mu sync.RWMutex

	nextID map[string]int64

	products   map[int64]models.Product
	categories map[int64]models.Category
	pharmacies map[int64]models.Pharmacy
	users      map[int64]models.User
	carts      map[int64]models.Cart
	cartItems  map[int64]models.CartItem
	orders     map[int64]models.Order
	orderItems map[int64]models.OrderItem
	payments   map[int64]models.Payment
	audit      []models.AuditEntry
	orderSeq   map[int]int64
}

func NewStore() *Store {
	return &Store{
		nextID:     make(map[string]int64),
		products:   make(map[int64]models.Product),
		categories: make(map[int64]models.Category),
		pharmacies: make(map[int64]models.Pharmacy),
		users:      make(map[int64]models.User),
		carts:      make(map[int64]models.Cart),
		cartItems:  make(map[int64]models.CartItem),
		orders:     make(map[int64]models.Order),
		orderItems: make(map[int64]models.OrderItem),
		payments:   make(map[int64]models.Payment),
		orderSeq:   make(map[int]int64),
	}
}

// New returns a registry whose repositories all share one fresh Store.
func New() (*repository.Registry, *Store) {
	s := NewStore()
	return &repository.Registry{
		Products:   &Products{store: s},
		Categories: &Categories{store: s},
		Pharmacies: &Pharmacies{store: s},
		Users:      &Users{store: s},
		Carts:      &Carts{store: s},
		Orders:     &Orders{store: s},
		Payments:   &Payments{store: s},
		Audit:      &AuditLog{store: s},
		Tx:         &TxManager{store: s},
	}, s
}

// AuditEntries returns a copy of the recorded audit trail.
func (s *Store) AuditEntries() []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

// transaction-aware locking helpers
type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func now() time.Time { return time.Now().UTC() }

type snapshot struct {
	nextID     map[string]int64
	products   map[int64]models.Product
	categories map[int64]models.Category
	pharmacies map[int64]models.Pharmacy
	users      map[int64]models.User
	carts      map[int64]models.Cart
	cartItems  map[int64]models.CartItem
	orders     map[int64]models.Order
	orderItems map[int64]models.OrderItem
	payments   map[int64]models.Payment
	audit      []models.AuditEntry
}

// order sequences are left out of snapshots: like a database sequence they are not rolled back.
func (s *Store) snapshot() snapshot {
	return snapshot{
		nextID:     maps.Clone(s.nextID),
		products:   maps.Clone(s.products),
		categories: maps.Clone(s.categories),
		pharmacies: maps.Clone(s.pharmacies),
		users:      maps.Clone(s.users),
		carts:      maps.Clone(s.carts),
		cartItems:  maps.Clone(s.cartItems),
		orders:     maps.Clone(s.orders),
		orderItems: maps.Clone(s.orderItems),
		payments:   maps.Clone(s.payments),
		audit:      slices.Clone(s.audit),
	}
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.products = snap.products
	s.categories = snap.categories
	s.pharmacies = snap.pharmacies
	s.users = snap.users
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.payments = snap.payments
	s.audit = snap.audit
}

// TxManager emulates a transaction boundary with the store's write lock.
type TxManager struct{ store *Store }

var _ repository.TxManager = (*TxManager)(nil)

func (t *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.store.inTx(ctx) {
		return fn(ctx)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, t.store)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
