package models

import "time"

// Category defines the struct for the 'categories' table.
// Categories are scoped to a pharmacy.
type Category struct {
	ID         int64     `json:"id" db:"id"`
	PharmacyID int64     `json:"pharmacyId" db:"pharmacy_id"`
	Name       string    `json:"name" db:"name"`
	Slug       string    `json:"slug" db:"slug"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
