package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"wolfpack-orders/internal/catalog"
	"wolfpack-orders/internal/config"
	"wolfpack-orders/internal/database"
	"wolfpack-orders/internal/gate"
	"wolfpack-orders/internal/hub"
	"wolfpack-orders/internal/lifecycle"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/messaging"
	"wolfpack-orders/internal/notify"
	"wolfpack-orders/internal/presence"
	"wolfpack-orders/internal/services/api"
	"wolfpack-orders/internal/services/notification"
	"wolfpack-orders/internal/session"
)

func main() {
	var (
		mode     = flag.String("mode", "", "Service mode (api-server, notification-subscriber)")
		port     = flag.Int("port", 3000, "HTTP port")
		inMemory = flag.Bool("in-memory", false, "Use the in-memory store instead of PostgreSQL")
		prefetch = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "api-server":
		if err := runAPIServer(ctx, cfg, log, *port, *inMemory); err != nil {
			log.Error("service_failed", "API server failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log, *prefetch); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPIServer wires the storage, presence, messaging, lifecycle and
// session layers and serves the HTTP API until shutdown.
func runAPIServer(ctx context.Context, cfg *config.Config, log *logger.Logger, port int, inMemory bool) error {
	requestID := logger.GenerateRequestID()

	var (
		store  orderStore
		health api.HealthChecker
	)

	if inMemory {
		store = database.NewMemoryStore()
		log.Info("store_selected", "Using in-memory store", requestID, nil)
	} else {
		db, err := database.Connect(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		store = database.NewStore(db)
		health = db
	}

	// Presence and membership readers back the checkout access gate. When
	// no Redis is configured every checkout is treated as a walk-up.
	var (
		locations   presence.PresenceReader
		memberships presence.MembershipReader
	)
	if cfg.Redis.Addr != "" {
		redisStore, err := presence.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		locations = redisStore
		memberships = redisStore
		log.Info("redis_connected", "Connected to Redis presence store", requestID, nil)
	} else {
		memStore := presence.NewMemoryStore()
		locations = memStore
		memberships = memStore
		log.Info("store_selected", "Using in-memory presence store", requestID, nil)
	}

	var dispatcher notify.Dispatcher
	if cfg.RabbitMQ.Host != "" {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		dispatcher = messaging.NewDispatcher(conn, log)
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
	} else {
		dispatcher = notify.NewLogDispatcher(log)
		log.Info("dispatcher_selected", "Using log-only notification dispatcher", requestID, nil)
	}

	cat := catalog.NewStatic(catalog.DefaultMenu())
	eventHub := hub.New(store, dispatcher, log, cfg.Venue.EventBuffer)
	engine := lifecycle.NewEngine(store, eventHub, log)
	accessGate := gate.New(memberships, locations, cfg.Venue.LocationFreshness)
	sessions := session.NewService(store, cat, accessGate, engine, log, cfg.Venue.DeliveryFee)

	handler := api.NewHandler(sessions, engine, eventHub, cat, health, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.Routes(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server_started", fmt.Sprintf("API server listening on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runNotificationSubscriber drains the notifications queue and prints
// human-readable alerts.
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	if cfg.RabbitMQ.Host == "" {
		return fmt.Errorf("RABBITMQ_HOST is required for notification-subscriber mode")
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log)

	return subscriber.Start(ctx)
}

// orderStore is everything the API server needs from a storage backend.
// database.Store and database.MemoryStore both satisfy it.
type orderStore interface {
	session.Store
	lifecycle.Store
	hub.ReconcileStore
}
