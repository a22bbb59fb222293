// Package repository declares the persistence contracts used by the services.
// Implementations live in sqlstore (MySQL) and memstore (in-process, used by tests).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/pharmastore-golang/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
	// ErrInsufficientStock is returned when a conditional stock decrement matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// DuplicateError names the unique key that rejected a write. It matches ErrDuplicate.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// TxManager runs fn inside one transaction carried by ctx.
// Nested calls join the outer transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	PharmacyID   int64
	CategoryID   *int64
	ActiveOnly   bool
	FeaturedOnly bool
	LowStockOnly bool
	Search       string
}

type Products interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, f ProductFilter) ([]models.Product, error)
	// DecrementStock subtracts qty only if at least qty units remain.
	// It returns ErrInsufficientStock otherwise and never leaves stock negative.
	DecrementStock(ctx context.Context, id int64, qty int) error
	IncrementStock(ctx context.Context, id int64, qty int) error
}

type Categories interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	ListByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Category, error)
}

type Pharmacies interface {
	Create(ctx context.Context, p *models.Pharmacy) error
	GetByID(ctx context.Context, id int64) (*models.Pharmacy, error)
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Carts interface {
	// GetByCustomerAndPharmacy returns the cart without items.
	GetByCustomerAndPharmacy(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	// Lock serializes writers of one cart until the surrounding transaction ends.
	Lock(ctx context.Context, cartID int64) error
	// ListItems returns the lines with their live Product attached.
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	// SaveItem inserts the line or overwrites the quantity of the existing (cart, product) line.
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID int64) error
	Clear(ctx context.Context, cartID int64) error
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	CustomerID    *int64
	PharmacyID    *int64
	Status        *models.OrderStatus
	CreatedBefore *time.Time
	Limit         int
}

type Orders interface {
	// NextSequence returns the next order number sequence for year. It is safe across processes.
	NextSequence(ctx context.Context, year int) (int64, error)
	Create(ctx context.Context, o *models.Order) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// LockByNumber is GetByNumber plus a row lock held until the surrounding transaction ends.
	LockByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// Update persists the mutable fields: status, tracking, cancellation and phase timestamps.
	Update(ctx context.Context, o *models.Order) error
	List(ctx context.Context, f OrderFilter) ([]models.Order, error)
}

type Payments interface {
	Create(ctx context.Context, p *models.Payment) error
	// GetByOrderID and GetByConversationID lock the row inside a transaction.
	GetByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	GetByConversationID(ctx context.Context, conversationID string) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
}

type AuditLog interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
}

// Registry bundles one implementation of every repository.
type Registry struct {
	Products   Products
	Categories Categories
	Pharmacies Pharmacies
	Users      Users
	Carts      Carts
	Orders     Orders
	Payments   Payments
	Audit      AuditLog
	Tx         TxManager
}
