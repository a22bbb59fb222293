package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart defines the struct for the 'carts' table.
// There is at most one cart per (customer, pharmacy) pair.
type Cart struct {
	ID         int64     `json:"id" db:"id"`
	CustomerID int64     `json:"customerId" db:"customer_id"`
	PharmacyID int64     `json:"pharmacyId" db:"pharmacy_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (Not in DB table, populated by the repository)
	Items []CartItem `json:"items" db:"-"`
}

// CartItem defines the struct for the 'cart_items' table.
// It holds a quantity only; prices are always read from the live product.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	CartID    int64     `json:"cartId" db:"cart_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Product *Product `json:"product,omitempty" db:"-"`
}

// Available reports whether the referenced product is active and has enough stock for this line.
func (i *CartItem) Available() bool {
	return i.Product != nil && i.Product.CanFulfil(i.Quantity)
}

// UnitPrice is the live effective price of the product.
func (i *CartItem) UnitPrice() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.EffectivePrice()
}

func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums the live line totals. It is never cached.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// UnavailableItems returns the lines whose product is inactive or short on stock.
func (c *Cart) UnavailableItems() []CartItem {
	var out []CartItem
	for i := range c.Items {
		if !c.Items[i].Available() {
			out = append(out, c.Items[i])
		}
	}
	return out
}
