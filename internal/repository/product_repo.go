package repository

import (
	"context"

	"teashop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.TeaProduct) error
	Update(ctx context.Context, product *model.TeaProduct) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TeaProduct, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.TeaProduct, error)
	ListByTea(ctx context.Context, teaID uuid.UUID) ([]model.TeaProduct, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	ClampStockToZero(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.TeaProduct) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.TeaProduct) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TeaProduct, error) {
	var product model.TeaProduct
	if err := GetDB(ctx, r.db).Preload("Tea").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.TeaProduct, error) {
	var product model.TeaProduct
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListByTea(ctx context.Context, teaID uuid.UUID) ([]model.TeaProduct, error) {
	var products []model.TeaProduct
	if err := GetDB(ctx, r.db).
		Where("tea_id = ? AND is_available", teaID).
		Order("weight ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.TeaProduct{}).
		Where("id = ?", id).UpdateColumn("stock", stock).Error
}

// DecrementStock subtracts quantity atomically, refusing to go below zero.
// Returns false when stock was too low to satisfy the full quantity; the
// caller decides how to reconcile.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.TeaProduct{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepository) ClampStockToZero(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.TeaProduct{}).
		Where("id = ?", id).UpdateColumn("stock", 0).Error
}
