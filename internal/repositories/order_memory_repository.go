package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"firstcome/internal/models"
	"firstcome/internal/pkg/errs"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MemoryOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("id", id)
	}
	return &order, nil
}

// GetByPhone returns the most recent order placed with the given phone number.
func (r *MemoryOrderRepository) GetByPhone(phone string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Order
	for _, order := range r.orders {
		if order.CustomerPhone != phone {
			continue
		}
		if found == nil || order.CreatedAt.After(found.CreatedAt) {
			o := order
			found = &o
		}
	}
	if found == nil {
		return nil, errs.NewObjectNotFoundError("phone", phone)
	}
	return found, nil
}

// Create adds a new order.
func (r *MemoryOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order with ID %s already exists", order.ID)
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.orders[order.ID] = *order
	return nil
}

// Update applies fields to an order.
func (r *MemoryOrderRepository) Update(id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return errs.NewObjectNotFoundError("id", id)
	}
	for name, value := range fields {
		if err := setOrderField(&order, name, value); err != nil {
			return err
		}
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// Delete removes an order by its ID.
func (r *MemoryOrderRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return errs.NewObjectNotFoundError("id", id)
	}
	delete(r.orders, id)
	return nil
}

func setOrderField(order *models.Order, name string, value interface{}) error {
	if !OrderUpdatableFields[name] {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("field cannot be updated"))
	}
	if name == "status" {
		switch v := value.(type) {
		case models.Status:
			order.Status = v
		case string:
			order.Status = models.Status(v)
		default:
			return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("unexpected type %T", value))
		}
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("unexpected type %T", value))
	}
	switch name {
	case "customer_name":
		order.CustomerName = s
	case "customer_phone":
		order.CustomerPhone = s
	case "address":
		order.Address = s
	case "postcode":
		order.Postcode = s
	}
	return nil
}
