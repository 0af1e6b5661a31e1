package repository

import (
	"context"
	"time"

	"teashop/internal/model"

	"gorm.io/gorm"
)

// TaxRateRepository resolves the consumption-tax configuration.
type TaxRateRepository interface {
	Create(ctx context.Context, rate *model.TaxRate) error
	List(ctx context.Context) ([]model.TaxRate, error)
	FindActive(ctx context.Context, asOf time.Time) (*model.TaxRate, error)
}

type taxRateRepository struct {
	db *gorm.DB
}

func NewTaxRateRepository(db *gorm.DB) TaxRateRepository {
	return &taxRateRepository{db: db}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *model.TaxRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *taxRateRepository) List(ctx context.Context) ([]model.TaxRate, error) {
	var rates []model.TaxRate
	if err := GetDB(ctx, r.db).Order("effective_from DESC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// FindActive returns the active row with the greatest effective_from not
// after asOf. gorm.ErrRecordNotFound means the built-in default applies.
func (r *taxRateRepository) FindActive(ctx context.Context, asOf time.Time) (*model.TaxRate, error) {
	var rate model.TaxRate
	if err := GetDB(ctx, r.db).
		Where("is_active AND effective_from <= ?", asOf).
		Order("effective_from DESC").
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

// ShippingFeeRepository resolves the shipping-fee configuration, using the
// same temporal resolution as tax rates.
type ShippingFeeRepository interface {
	Create(ctx context.Context, fee *model.ShippingFee) error
	List(ctx context.Context) ([]model.ShippingFee, error)
	FindActive(ctx context.Context, asOf time.Time) (*model.ShippingFee, error)
}

type shippingFeeRepository struct {
	db *gorm.DB
}

func NewShippingFeeRepository(db *gorm.DB) ShippingFeeRepository {
	return &shippingFeeRepository{db: db}
}

func (r *shippingFeeRepository) Create(ctx context.Context, fee *model.ShippingFee) error {
	return GetDB(ctx, r.db).Create(fee).Error
}

func (r *shippingFeeRepository) List(ctx context.Context) ([]model.ShippingFee, error) {
	var fees []model.ShippingFee
	if err := GetDB(ctx, r.db).Order("effective_from DESC").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *shippingFeeRepository) FindActive(ctx context.Context, asOf time.Time) (*model.ShippingFee, error) {
	var fee model.ShippingFee
	if err := GetDB(ctx, r.db).
		Where("is_active AND effective_from <= ?", asOf).
		Order("effective_from DESC").
		First(&fee).Error; err != nil {
		return nil, err
	}
	return &fee, nil
}
