package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/streadway/amqp"
)

// StatusEvent is the subset of an order event the notifier reads.
type StatusEvent struct {
	Type          string `json:"type"`
	OrderID       string `json:"order_id"`
	CustomerPhone string `json:"customer_phone"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
}

// NotificationHandler returns a consumer callback that turns order events into
// customer notifications. Notifications are written to the log; the message
// text is produced by describe.
func NotificationHandler(logger *slog.Logger, describe func(status string) string) func(amqp.Delivery) error {
	logger = logger.With("component", "notifier")
	return func(msg amqp.Delivery) error {
		var event StatusEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		if event.OrderID == "" {
			return fmt.Errorf("order event without order id")
		}
		if event.CustomerPhone == "" {
			return nil
		}
		logger.Info("customer notified",
			"phone", event.CustomerPhone,
			"order_id", event.OrderID,
			"message", fmt.Sprintf("Your order is now: %s", describe(event.NewStatus)),
		)
		return nil
	}
}
