package database

import (
	"log"

	"teashop/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the signup race and order-number retry rely on.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Tea{},
		&model.TeaProduct{},
		&model.FavoriteTea{},
		&model.TeaReview{},
		&model.TaxRate{},
		&model.ShippingFee{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
