package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is a consumption-tax percentage with temporal validity. The rate in
// effect for a date is the active row with the greatest EffectiveFrom not
// after that date.
type TaxRate struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Rate          decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate"` // percent, e.g. 10.00
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DefaultTaxRate applies when no TaxRate row matches the requested date.
var DefaultTaxRate = decimal.NewFromInt(10)

// ShippingFee is a flat delivery fee with temporal validity and an optional
// free-shipping threshold on the tax-exclusive subtotal.
type ShippingFee struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Fee           int       `gorm:"type:int;not null" json:"fee"`
	FreeThreshold *int      `gorm:"type:int" json:"free_threshold"`
	EffectiveFrom time.Time `gorm:"type:date;not null;index" json:"effective_from"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// DefaultShippingFee applies when no ShippingFee row matches the requested date.
func DefaultShippingFee() ShippingFee {
	return ShippingFee{Fee: 800}
}

// FeeFor returns the fee owed for a subtotal: zero at or above the free
// threshold, the flat fee otherwise.
func (s *ShippingFee) FeeFor(subtotal int) int {
	if s.FreeThreshold != nil && subtotal >= *s.FreeThreshold {
		return 0
	}
	return s.Fee
}

// TaxAmount returns floor(subtotal * rate / 100) for a percentage rate.
func TaxAmount(subtotal int, rate decimal.Decimal) int {
	tax := decimal.NewFromInt(int64(subtotal)).
		Mul(rate).
		Div(decimal.NewFromInt(100))
	return int(tax.IntPart())
}
