package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType enum constants
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is a ledger row recording a stock change. Order fulfillment
// writes exactly one OUT row per order line. Flagged marks a decrement that
// could not be applied in full because concurrent orders drained the stock;
// those need manual reconciliation.
type StockMovement struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"order_id"` // nil for manual adjustments
	MovementType string     `gorm:"type:varchar(10);not null" json:"movement_type"`
	Quantity     int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter   int        `gorm:"type:int;not null" json:"stock_after"`
	Flagged      bool       `gorm:"not null;default:false" json:"flagged"`
	CreatedAt    time.Time  `json:"created_at"`
}
