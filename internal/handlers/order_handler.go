package handlers

import (
	"log/slog"

	"firstcome/internal/models"
	"firstcome/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "order_handler"),
	}
}

// RegisterPublicRoutes registers the customer-facing order routes.
func (h *OrderHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/orders", h.HandleCreateOrder)
	router.Get("/tracker/:phone", h.HandleTrackOrder)
}

// RegisterStaffRoutes registers the kitchen dashboard routes.
func (h *OrderHandler) RegisterStaffRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/advance", h.HandleAdvanceOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// StatusResponse describes where an order is in the kitchen.
type StatusResponse struct {
	OrderID        string                `json:"order_id"`
	CustomerName   string                `json:"customer_name,omitempty"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method,omitempty"`
	Status         models.Status         `json:"status"`
	Label          string                `json:"label"`
}

// HandleGetOrders retrieves all orders for the dashboard.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders()
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		return writeError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return writeError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleCreateOrder places a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}

	order, err := h.service.CreateOrder(req)
	if err != nil {
		if errorStatus(err) == fiber.StatusInternalServerError {
			h.logger.Error("failed to create order", "error", err)
		}
		return writeError(c, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleTrackOrder shows the latest order placed with a phone number.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByPhone(c.Params("phone"))
	if err != nil {
		return writeError(c, err, "No order found for this phone number")
	}
	return c.JSON(StatusResponse{
		OrderID:        order.ID,
		CustomerName:   order.CustomerName,
		DeliveryMethod: order.DeliveryMethod,
		Status:         order.Status,
		Label:          order.Status.Label(),
	})
}

// HandleAdvanceOrder moves an order to its next status.
func (h *OrderHandler) HandleAdvanceOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	status, err := h.service.AdvanceStatus(orderID)
	if err != nil {
		if errorStatus(err) == fiber.StatusInternalServerError {
			h.logger.Error("failed to advance order", "order_id", orderID, "error", err)
		}
		return writeError(c, err, "Could not advance order")
	}
	return c.JSON(StatusResponse{
		OrderID: orderID,
		Status:  status,
		Label:   status.Label(),
	})
}

// HandleDeleteOrder removes an order, stopping the oven if it is cooking.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		return writeError(c, err, "Could not delete order")
	}
	return c.JSON(fiber.Map{
		"message": "Order deleted successfully",
	})
}
