package repositories

import (
	"firstcome/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// Update takes a map of column names to values. Implementations accept the
// columns listed in OrderUpdatableFields.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByPhone(phone string) (*models.Order, error)
	Create(order *models.Order) error
	Update(id string, fields map[string]interface{}) error
	Delete(id string) error
}

// OrderUpdatableFields are the columns that may be changed after creation.
var OrderUpdatableFields = map[string]bool{
	"status":         true,
	"customer_name":  true,
	"customer_phone": true,
	"address":        true,
	"postcode":       true,
}
