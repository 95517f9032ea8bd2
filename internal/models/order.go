package models

import "time"

// DeliveryMethod says how a finished order reaches the customer. It is fixed at creation.
type DeliveryMethod string

const (
	DeliveryTakeOut  DeliveryMethod = "take_out"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Valid reports whether m is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryTakeOut || m == DeliveryDelivery
}

// OrderItem represents a single menu item within an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Price at the time of order
}

// Order represents a customer order tracked through the kitchen lifecycle.
type Order struct {
	ID             string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName   string         `json:"customer_name" gorm:"type:varchar(100)"`
	CustomerPhone  string         `json:"customer_phone" gorm:"index;type:varchar(32)"`
	Address        string         `json:"address" gorm:"type:varchar(255)"`
	Postcode       string         `json:"postcode" gorm:"type:varchar(16)"`
	DeliveryMethod DeliveryMethod `json:"delivery_method" gorm:"type:varchar(16)"`
	Items          []OrderItem    `json:"items" gorm:"serializer:json"`
	TotalAmount    float64        `json:"total_amount"`
	Status         Status         `json:"status" gorm:"index;type:varchar(32)"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
