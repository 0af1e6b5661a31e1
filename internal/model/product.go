package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TeaProduct is a purchasable variant of a tea, priced per packed weight.
// Price is tax-exclusive JPY. Stock is only decremented at payment
// confirmation and never goes below zero.
type TeaProduct struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TeaID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_tea_weight;index" json:"tea_id"`
	Tea         Tea       `gorm:"foreignKey:TeaID" json:"-"`
	Weight      int       `gorm:"type:int;not null;uniqueIndex:idx_product_tea_weight" json:"weight"` // grams: 100, 200, 300
	Price       int       `gorm:"type:int;not null" json:"price"`
	Stock       int       `gorm:"type:int;not null;default:0" json:"stock"`
	IsAvailable bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceWithTax returns floor(price * (1 + rate/100)) for a percentage rate.
func (p *TeaProduct) PriceWithTax(rate decimal.Decimal) int {
	gross := decimal.NewFromInt(int64(p.Price)).
		Mul(decimal.NewFromInt(100).Add(rate)).
		Div(decimal.NewFromInt(100))
	return int(gross.IntPart())
}
