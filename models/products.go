package models

import (
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the supermarket catalog.
// ID is assigned by the store on insert; zero means the product has not
// been persisted yet.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

// IsPersisted reports whether the store has assigned an ID.
func (p *Product) IsPersisted() bool {
	return p.ID != 0
}
