package handlers

import (
	"firstcome/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MenuHandler serves the menu.
type MenuHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(service *services.ProductService) *MenuHandler {
	return &MenuHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the menu routes.
func (h *MenuHandler) RegisterPublicRoutes(router fiber.Router) {
	menuRoutes := router.Group("/menu")
	menuRoutes.Get("/", h.HandleGetMenu)
	menuRoutes.Get("/:id", h.HandleGetMenuItem)
}

// RegisterStaffRoutes registers the routes staff use to keep the menu current.
func (h *MenuHandler) RegisterStaffRoutes(router fiber.Router) {
	menuRoutes := router.Group("/menu")
	menuRoutes.Patch("/:id", h.HandleSetAvailability)
	menuRoutes.Delete("/:id", h.HandleDeleteMenuItem)
}

// AvailabilityRequest marks a menu item as orderable or sold out.
type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// HandleGetMenu lists the items that can be ordered.
func (h *MenuHandler) HandleGetMenu(c *fiber.Ctx) error {
	menu, err := h.service.ListMenu()
	if err != nil {
		return writeError(c, err, "Could not retrieve menu")
	}
	return c.JSON(menu)
}

// HandleGetMenuItem retrieves a single menu item.
func (h *MenuHandler) HandleGetMenuItem(c *fiber.Ctx) error {
	item, err := h.service.GetMenuItem(c.Params("id"))
	if err != nil {
		return writeError(c, err, "Could not retrieve menu item")
	}
	return c.JSON(item)
}

// HandleSetAvailability switches a menu item on or off.
func (h *MenuHandler) HandleSetAvailability(c *fiber.Ctx) error {
	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if ok, err := validateBody(c, h.validate, req); !ok {
		return err
	}

	item, err := h.service.SetAvailability(c.Params("id"), *req.Available)
	if err != nil {
		return writeError(c, err, "Could not update menu item")
	}
	return c.JSON(item)
}

// HandleDeleteMenuItem takes an item off the menu.
func (h *MenuHandler) HandleDeleteMenuItem(c *fiber.Ctx) error {
	if err := h.service.RemoveMenuItem(c.Params("id")); err != nil {
		return writeError(c, err, "Could not delete menu item")
	}
	return c.JSON(fiber.Map{
		"message": "Menu item deleted successfully",
	})
}
