package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/notify"
)

// Dispatcher publishes push notification messages to the notifications
// fanout exchange. It implements the notify.Dispatcher capability; the
// actual device delivery happens downstream of the queue.
type Dispatcher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewDispatcher creates an AMQP-backed notification dispatcher
func NewDispatcher(conn *Connection, log *logger.Logger) *Dispatcher {
	return &Dispatcher{conn: conn, logger: log}
}

// Dispatch publishes one notification message with transient delivery
func (d *Dispatcher) Dispatch(ctx context.Context, msg notify.Message) error {
	if d.conn.IsClosed() {
		if err := d.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = d.conn.Channel().PublishWithContext(
		ctx,
		NotificationsExchange,
		"",    // routing key ignored for fanout
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Transient,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		d.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish notification to exchange %s", NotificationsExchange),
			"", err, map[string]interface{}{
				"exchange": NotificationsExchange,
				"topic":    msg.Target.Topic,
			})
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	d.logger.Debug("message_published",
		fmt.Sprintf("Published notification to exchange %s", NotificationsExchange),
		"", map[string]interface{}{
			"exchange":     NotificationsExchange,
			"topic":        msg.Target.Topic,
			"message_size": len(body),
		})
	return nil
}
