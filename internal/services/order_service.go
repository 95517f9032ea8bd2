package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"firstcome/internal/cooking"
	"firstcome/internal/models"
	"firstcome/internal/pkg/errs"
	"firstcome/internal/repositories"
)

// Oven is the cooking session as seen by the order service.
type Oven interface {
	Start(orderID string, ticks int) error
	Active() bool
	CancelIfOwner(orderID string) bool
	Pending(orderID string) bool
	Acknowledge(orderID string)
	Snapshot() cooking.State
	Completions() <-chan cooking.Completion
}

// EventPublisher delivers order events to interested consumers.
type EventPublisher interface {
	PublishOrderEvent(event interface{}) error
}

// StatusChangedEvent is published whenever an order changes status.
type StatusChangedEvent struct {
	Type           string                `json:"type"`
	OrderID        string                `json:"order_id"`
	CustomerPhone  string                `json:"customer_phone"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	OldStatus      models.Status         `json:"old_status"`
	NewStatus      models.Status         `json:"new_status"`
	ChangedAt      time.Time             `json:"changed_at"`
}

// EventStatusChanged is the type of StatusChangedEvent.
const EventStatusChanged = "order.status_changed"

// TickRange bounds the random length of a cooking session.
type TickRange struct {
	Min int
	Max int
}

// Draw returns a tick count uniformly chosen from the range.
func (r TickRange) Draw() int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.IntN(r.Max-r.Min+1)
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CustomerName   string                `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone  string                `json:"customer_phone" validate:"required,min=6,max=32"`
	Address        string                `json:"address" validate:"required_if=DeliveryMethod delivery,max=255"`
	Postcode       string                `json:"postcode" validate:"required_if=DeliveryMethod delivery,max=16"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method" validate:"required,oneof=take_out delivery"`
	Items          []CreateOrderItem     `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderItem is one line of a CreateOrderRequest.
type CreateOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=50"`
}

// OrderService tracks orders through the kitchen and drives the oven.
//
// Every decision that reads an order and may start the oven runs under mu, so
// two orders reaching Cooking together cannot both start a session. The oven
// reports finished countdowns on its completion channel, which Run consumes.
// Events are published after mu is released.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	oven        Oven
	publisher   EventPublisher
	ticks       func() int
	logger      *slog.Logger

	mu sync.Mutex
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	oven Oven,
	publisher EventPublisher,
	ticks TickRange,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		oven:        oven,
		publisher:   publisher,
		ticks:       ticks.Draw,
		logger:      logger.With("component", "order_service"),
	}
}

// ListOrders retrieves all orders, newest first.
func (s *OrderService) ListOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderByPhone retrieves the latest order placed with phone.
func (s *OrderService) GetOrderByPhone(phone string) (*models.Order, error) {
	return s.orderRepo.GetByPhone(phone)
}

// OvenState returns the current cooking session.
func (s *OrderService) OvenState() cooking.State {
	return s.oven.Snapshot()
}

// CreateOrder places a new order. Prices are taken from the menu at the time of ordering.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if !req.DeliveryMethod.Valid() {
		return nil, errs.NewValueIsInvalidErrorWithCause("delivery_method", fmt.Errorf("unknown value %q", string(req.DeliveryMethod)))
	}
	if len(req.Items) == 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("items", errors.New("an order needs at least one item"))
	}

	var totalAmount float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				return nil, errs.NewValueIsInvalidErrorWithCause("items", fmt.Errorf("product %s is not on the menu", item.ProductID))
			}
			return nil, fmt.Errorf("failed to look up product %s: %w", item.ProductID, err)
		}
		if !product.Available {
			return nil, errs.NewValueIsInvalidErrorWithCause("items", fmt.Errorf("%s is not available", product.Name))
		}
		if item.Quantity < 1 {
			return nil, errs.NewValueIsInvalidErrorWithCause("items", fmt.Errorf("quantity for %s must be positive", product.Name))
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		totalAmount += product.Price * float64(item.Quantity)
	}

	order := &models.Order{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Address:        req.Address,
		Postcode:       req.Postcode,
		DeliveryMethod: req.DeliveryMethod,
		Items:          items,
		TotalAmount:    totalAmount,
		Status:         models.StatusNotStarted,
		CreatedAt:      time.Now(),
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.logger.Info("order created", "order_id", order.ID, "delivery_method", order.DeliveryMethod, "total", totalAmount)
	s.publish(statusEvent(order, "", order.Status))
	return order, nil
}

// AdvanceStatus moves an order to its next status and returns it.
//
// An order that reaches Cooking starts the oven if it is free; otherwise it
// waits at Cooking and a later advance (or ResumeQueued) starts it. A cooking
// order only leaves Cooking when its countdown completes; an order whose
// countdown finished but has not been moved on yet is not cooked again.
// Advancing a finished order changes nothing.
func (s *OrderService) AdvanceStatus(id string) (models.Status, error) {
	status, event, err := s.advance(id)
	s.publish(event)
	return status, err
}

func (s *OrderService) advance(id string) (models.Status, *StatusChangedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return "", nil, err
	}

	ovenBusy := s.oven.Active() || s.oven.Pending(order.ID)
	next, err := models.Advance(order.Status, order.DeliveryMethod, ovenBusy)
	if err != nil {
		return "", nil, fmt.Errorf("advance order %s: %w", id, err)
	}

	var event *StatusChangedEvent
	if next.Status != order.Status {
		if event, err = s.setStatus(order, next.Status); err != nil {
			return "", nil, err
		}
	}
	if next.StartCooking {
		s.startCooking(order.ID)
	}
	return next.Status, event, nil
}

// DeleteOrder removes an order. If the order is in the oven, the session is cancelled first.
func (s *OrderService) DeleteOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.orderRepo.GetByID(id); err != nil {
		return err
	}
	if s.oven.CancelIfOwner(id) {
		s.logger.Info("cooking cancelled for deleted order", "order_id", id)
	}
	if err := s.orderRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}

// ResumeQueued starts the oven for the oldest order waiting at Cooking, if the
// oven is free. It reports the id of the started order.
func (s *OrderService) ResumeQueued() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.oven.Active() {
		return "", nil
	}
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to list orders: %w", err)
	}

	var oldest *models.Order
	for i := range orders {
		o := &orders[i]
		if o.Status != models.StatusCooking || s.oven.Pending(o.ID) {
			continue
		}
		if oldest == nil || o.CreatedAt.Before(oldest.CreatedAt) {
			oldest = o
		}
	}
	if oldest == nil {
		return "", nil
	}
	if !s.startCooking(oldest.ID) {
		return "", nil
	}
	return oldest.ID, nil
}

// Run consumes oven completions until ctx is done.
func (s *OrderService) Run(ctx context.Context) {
	completions := s.oven.Completions()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-completions:
			if err := s.FinishCooking(c); err != nil {
				s.logger.Error("failed to finish cooking", "order_id", c.OrderID, "error", err)
			}
		}
	}
}

// FinishCooking moves the order named by c out of Cooking and acknowledges the
// completion. If the order cannot be moved it stays queued at Cooking.
func (s *OrderService) FinishCooking(c cooking.Completion) error {
	event, err := s.finishCooking(c)
	s.publish(event)
	return err
}

func (s *OrderService) finishCooking(c cooking.Completion) (*StatusChangedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.oven.Acknowledge(c.OrderID)

	order, err := s.orderRepo.GetByID(c.OrderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			s.logger.Warn("cooked order no longer exists", "order_id", c.OrderID)
			return nil, nil
		}
		return nil, err
	}
	if order.Status != models.StatusCooking {
		s.logger.Warn("cooked order is not cooking", "order_id", order.ID, "status", order.Status)
		return nil, nil
	}
	return s.setStatus(order, models.FinishCooking(order.DeliveryMethod))
}

// startCooking starts the oven for orderID. Losing the start race leaves the
// order queued at Cooking.
func (s *OrderService) startCooking(orderID string) bool {
	err := s.oven.Start(orderID, s.ticks())
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, cooking.ErrAlreadyActive):
		s.logger.Info("oven busy, order queued", "order_id", orderID)
	case errors.Is(err, cooking.ErrCompletionPending):
		s.logger.Info("order already cooked, waiting for completion", "order_id", orderID)
	default:
		s.logger.Error("failed to start cooking", "order_id", orderID, "error", err)
	}
	return false
}

// setStatus persists the new status and returns the event to publish once mu
// is released.
func (s *OrderService) setStatus(order *models.Order, status models.Status) (*StatusChangedEvent, error) {
	if err := s.orderRepo.Update(order.ID, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", order.ID, err)
	}
	old := order.Status
	order.Status = status
	s.logger.Info("order status changed", "order_id", order.ID, "from", old, "to", status)
	return statusEvent(order, old, status), nil
}

func statusEvent(order *models.Order, old, status models.Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		Type:           EventStatusChanged,
		OrderID:        order.ID,
		CustomerPhone:  order.CustomerPhone,
		DeliveryMethod: order.DeliveryMethod,
		OldStatus:      old,
		NewStatus:      status,
		ChangedAt:      time.Now(),
	}
}

// publish sends event if there is one. Failures are logged only.
func (s *OrderService) publish(event *StatusChangedEvent) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(*event); err != nil {
		s.logger.Warn("failed to publish order event", "order_id", event.OrderID, "error", err)
	}
}
