package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/messaging"
	"wolfpack-orders/internal/notify"
)

// Subscriber drains the notifications queue and prints human-readable alerts
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start runs the subscriber until a shutdown signal or consumer failure
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleMessage); err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.gracefulShutdown(requestID)
	case <-s.done:
		return nil
	}
}

// handleMessage processes one notification message from the queue
func (s *Subscriber) handleMessage(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg notify.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received notification", requestID, map[string]interface{}{
		"topic": msg.Target.Topic,
		"title": msg.Title,
	})

	s.displayNotification(&msg)

	return nil
}

// displayNotification prints the alert to stdout and logs the delivery
func (s *Subscriber) displayNotification(msg *notify.Message) {
	fmt.Println(s.formatNotification(msg))

	s.logger.Info("notification_displayed", "Notification displayed", "", map[string]interface{}{
		"topic":        msg.Target.Topic,
		"device_token": msg.Target.DeviceToken,
		"title":        msg.Title,
	})
}

// formatNotification renders a single console line for the alert
func (s *Subscriber) formatNotification(msg *notify.Message) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	target := msg.Target.Topic
	if target == "" {
		target = msg.Target.DeviceToken
	}

	line := fmt.Sprintf("[%s] (%s) %s: %s", timestamp, target, msg.Title, msg.Body)
	if msg.Link != "" {
		line += " " + msg.Link
	}
	return line
}

func (s *Subscriber) gracefulShutdown(requestID string) error {
	s.logger.Info("graceful_shutdown", "Starting graceful shutdown", requestID, nil)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.logger.Info("graceful_shutdown", "Graceful shutdown completed", requestID, nil)
	return nil
}
