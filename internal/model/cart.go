package model

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a user's not-yet-purchased items, one cart per user. Totals are
// never stored on the cart; they are recomputed from the pricing rules on
// every read so rule changes show up immediately.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal is the tax-exclusive sum over all items at current product prices.
func (c *Cart) Subtotal() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}
	return total
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}

// CartItem is one product line in a cart, unique per (cart, product).
type CartItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product;index" json:"cart_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product" json:"product_id"`
	Product   TeaProduct `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int        `gorm:"type:int;not null;default:1" json:"quantity"`
	CreatedAt time.Time  `json:"created_at"`
}

// Subtotal is the tax-exclusive line total at the product's current price.
func (i *CartItem) Subtotal() int {
	return i.Product.Price * i.Quantity
}
