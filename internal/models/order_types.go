package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryType selects the flat shipping fee tier.
type DeliveryType string

const (
	DeliveryCourier DeliveryType = "COURIER"
	DeliveryCargo   DeliveryType = "CARGO"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryCourier || d == DeliveryCargo
}

// Order is the model for the 'orders' table.
// Totals are snapshotted at checkout; only status, tracking and cancellation fields change afterwards.
type Order struct {
	ID           int64        `json:"id" db:"id"`
	OrderNumber  string       `json:"orderNumber" db:"order_number"`
	PharmacyID   int64        `json:"pharmacyId" db:"pharmacy_id"`
	CustomerID   int64        `json:"customerId" db:"customer_id"`
	Status       OrderStatus  `json:"status" db:"status"`
	DeliveryType DeliveryType `json:"deliveryType" db:"delivery_type"`

	// --- Snapshotted Totals ---
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	TotalAmount  decimal.Decimal `json:"totalAmount" db:"total_amount"`

	// --- Shipping ---
	ShippingAddress    string `json:"shippingAddress" db:"shipping_address"`
	ShippingCity       string `json:"shippingCity" db:"shipping_city"`
	ShippingDistrict   string `json:"shippingDistrict" db:"shipping_district"`
	ShippingPostalCode string `json:"shippingPostalCode" db:"shipping_postal_code"`
	ShippingPhone      string `json:"shippingPhone" db:"shipping_phone"`
	Notes              string `json:"notes" db:"notes"`

	// --- Tracking ---
	TrackingNumber *string `json:"trackingNumber,omitempty" db:"tracking_number"`
	CargoCompany   *string `json:"cargoCompany,omitempty" db:"cargo_company"`

	// --- Cancellation ---
	CancellationReason *string    `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	CancelledBy        *int64     `json:"cancelledBy,omitempty" db:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`

	// --- Phase Timestamps ---
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty" db:"confirmed_at"`
	PreparingAt *time.Time `json:"preparingAt,omitempty" db:"preparing_at"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
// Name, SKU and price are copied from the product at checkout and never change.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"orderId" db:"order_id"`
	ProductID   int64           `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	ProductSKU  string          `json:"productSku" db:"product_sku"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"` // Price at the time of purchase
	TotalPrice  decimal.Decimal `json:"totalPrice" db:"total_price"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
