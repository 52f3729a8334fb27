package notify

import (
	"context"

	"wolfpack-orders/internal/logger"
)

// Target addresses a push notification: either a single device token or a
// broadcast topic. Exactly one field is set.
type Target struct {
	DeviceToken string `json:"device_token,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// Message is an out-of-band alert for staff or customers
type Message struct {
	Target Target `json:"target"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Link   string `json:"link,omitempty"`
}

// Dispatcher is the fire-and-forget notification capability. Failures are
// non-fatal to the operation that triggered the dispatch: the hub logs and
// swallows them.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// LogDispatcher writes notifications to the structured log instead of a
// push transport. Used in tests and when no broker is configured.
type LogDispatcher struct {
	logger *logger.Logger
}

// NewLogDispatcher creates a log-only dispatcher
func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{logger: log}
}

// Dispatch logs the notification and reports success
func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.logger.Info("notification_dispatched", "Notification dispatched (log only)", "", map[string]interface{}{
		"topic":        msg.Target.Topic,
		"device_token": msg.Target.DeviceToken,
		"title":        msg.Title,
		"body":         msg.Body,
	})
	return nil
}
