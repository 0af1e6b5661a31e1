package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants. Orders only ever move forward; cancelled is a
// terminal branch reachable from pending.
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var statusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusPaid:       1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
	OrderStatusCancelled:  5,
}

// CanTransition reports whether an order may move from one status to another.
// Cancellation is only allowed from pending; every other move must step
// forward through the fulfillment sequence.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if to == OrderStatusCancelled {
		return from == OrderStatusPending
	}
	if from == OrderStatusCancelled {
		return false
	}
	return toRank == fromRank+1
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// Order is an immutable snapshot of a purchase. All monetary fields and the
// tax rate are frozen at creation time; only Status (and the gateway ids
// learned during payment) change afterwards.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Subtotal    int             `gorm:"type:int;not null" json:"subtotal"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount   int             `gorm:"type:int;not null" json:"tax_amount"`
	ShippingFee int             `gorm:"type:int;not null" json:"shipping_fee"`
	TotalAmount int             `gorm:"type:int;not null" json:"total_amount"`

	CheckoutSessionID string `gorm:"type:varchar(200)" json:"-"`
	PaymentIntentID   string `gorm:"type:varchar(200)" json:"-"`

	ShippingName       string `gorm:"type:varchar(100);not null" json:"shipping_name"`
	ShippingPostalCode string `gorm:"type:varchar(8);not null" json:"shipping_postal_code"`
	ShippingAddress    string `gorm:"type:varchar(200);not null" json:"shipping_address"`
	ShippingPhone      string `gorm:"type:varchar(20);not null" json:"shipping_phone"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CalculateAmounts freezes the totals from the item lines, a tax rate and a
// shipping fee. Afterwards TotalAmount = Subtotal + TaxAmount + ShippingFee.
func (o *Order) CalculateAmounts(rate decimal.Decimal, shippingFee int) {
	subtotal := 0
	for i := range o.Items {
		subtotal += o.Items[i].Subtotal()
	}
	o.Subtotal = subtotal
	o.TaxRate = rate
	o.TaxAmount = TaxAmount(subtotal, rate)
	o.ShippingFee = shippingFee
	o.TotalAmount = o.Subtotal + o.TaxAmount + o.ShippingFee
}

// OrderItem is one purchased line. UnitPrice is the product's tax-exclusive
// price copied at order creation, immune to later catalog changes.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   TeaProduct `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int        `gorm:"type:int;not null;default:1" json:"quantity"`
	UnitPrice int        `gorm:"type:int;not null" json:"unit_price"`
}

// Subtotal is the tax-exclusive line total at the frozen unit price.
func (i *OrderItem) Subtotal() int {
	return i.UnitPrice * i.Quantity
}
