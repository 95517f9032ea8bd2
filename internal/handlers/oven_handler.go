package handlers

import (
	"firstcome/internal/cooking"
	"firstcome/internal/indicator"

	"github.com/gofiber/fiber/v2"
)

// OvenStater reports the cooking session.
type OvenStater interface {
	OvenState() cooking.State
}

// FrameSource reports what the indicator is showing.
type FrameSource interface {
	Current() indicator.Frame
}

// OvenHandler exposes the oven and its indicator to the dashboard.
type OvenHandler struct {
	oven    OvenStater
	display FrameSource
}

// NewOvenHandler creates a new OvenHandler.
func NewOvenHandler(oven OvenStater, display FrameSource) *OvenHandler {
	return &OvenHandler{oven: oven, display: display}
}

// RegisterStaffRoutes registers the oven routes.
func (h *OvenHandler) RegisterStaffRoutes(router fiber.Router) {
	router.Get("/oven", h.HandleGetOven)
}

// HandleGetOven returns the current session and indicator frame.
func (h *OvenHandler) HandleGetOven(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session":   h.oven.OvenState(),
		"indicator": h.display.Current(),
	})
}
