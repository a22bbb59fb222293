package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// Every product belongs to exactly one pharmacy (the tenant) and one category.
type Product struct {
	ID          int64  `json:"id" db:"id"`
	PharmacyID  int64  `json:"pharmacyId" db:"pharmacy_id"`
	CategoryID  int64  `json:"categoryId" db:"category_id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	SKU         string `json:"sku" db:"sku"`
	Description string `json:"description" db:"description"`

	// --- Pricing & Stock ---
	Price             decimal.Decimal     `json:"price" db:"price"`
	DiscountedPrice   decimal.NullDecimal `json:"discountedPrice" db:"discounted_price"`
	StockQuantity     int                 `json:"stockQuantity" db:"stock_quantity"`
	LowStockThreshold int                 `json:"lowStockThreshold" db:"low_stock_threshold"`

	// --- Flags ---
	Active   bool `json:"active" db:"is_active"`
	Featured bool `json:"featured" db:"is_featured"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HasDiscount reports whether the discounted price actually undercuts the list price.
func (p *Product) HasDiscount() bool {
	return p.DiscountedPrice.Valid && p.DiscountedPrice.Decimal.LessThan(p.Price)
}

// EffectivePrice is the price a customer pays right now.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

// CanFulfil reports whether the product is active and has at least qty units on hand.
func (p *Product) CanFulfil(qty int) bool {
	return p.Active && p.StockQuantity >= qty
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
