package repository

import (
	"context"

	"teashop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	FindByUserWithItems(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreateByUser is a single idempotent insert-or-fetch: the insert runs
// with ON CONFLICT DO NOTHING against the user_id unique index, then the row
// is read back. Concurrent first adds both end up with the same cart.
func (r *cartRepository) GetOrCreateByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	db := GetDB(ctx, r.db)

	cart := model.Cart{UserID: userID}
	if err := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&cart).Error; err != nil {
		return nil, err
	}

	var out model.Cart
	if err := db.First(&out, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) FindByUserWithItems(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Tea").
		First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem inserts a line or, when the (cart, product) line already exists,
// atomically increments its quantity.
func (r *cartRepository) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	item := model.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + ?", quantity),
			}),
		}).
		Create(&item).Error
}

func (r *cartRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := GetDB(ctx, r.db).
		Preload("Product").
		First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.CartItem{}).
		Where("id = ?", itemID).UpdateColumn("quantity", quantity).Error
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.CartItem{}).Error
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}
