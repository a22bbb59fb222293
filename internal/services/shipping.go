package services

import (
	"github.com/shopspring/decimal"

	"github.com/01moynul/pharmastore-golang/internal/models"
)

// ShippingRates is the flat fee table. Courier has its own fee; every other delivery type pays Cargo.
type ShippingRates struct {
	Courier decimal.Decimal
	Cargo   decimal.Decimal
}

func DefaultShippingRates() ShippingRates {
	return ShippingRates{
		Courier: decimal.RequireFromString("20.00"),
		Cargo:   decimal.RequireFromString("10.00"),
	}
}

func (r ShippingRates) For(t models.DeliveryType) decimal.Decimal {
	if t == models.DeliveryCourier {
		return r.Courier
	}
	return r.Cargo
}
