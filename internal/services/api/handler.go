package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wolfpack-orders/internal/catalog"
	"wolfpack-orders/internal/hub"
	"wolfpack-orders/internal/lifecycle"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
	"wolfpack-orders/internal/session"
	"wolfpack-orders/internal/validation"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler exposes the HTTP surface: menu browsing, table sessions,
// order lifecycle, the open-order snapshot and the live event stream.
type Handler struct {
	sessions *session.Service
	engine   *lifecycle.Engine
	hub      *hub.Hub
	catalog  catalog.Catalog
	health   HealthChecker
	logger   *logger.Logger
}

// NewHandler creates a new API handler. health may be nil when the server
// runs on the in-memory store.
func NewHandler(sessions *session.Service, engine *lifecycle.Engine, h *hub.Hub, cat catalog.Catalog, health HealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		engine:   engine,
		hub:      h,
		catalog:  cat,
		health:   health,
		logger:   log,
	}
}

// Routes builds the router for the API server
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.withLogging)

	r.Get("/health", h.HealthCheck)

	r.Get("/menu/categories", h.ListCategories)
	r.Get("/menu/categories/{categoryID}/items", h.ListItems)

	r.Route("/tables/{tableID}/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.AbandonSession)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemID}", h.UpdateQuantity)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Post("/submit", h.SubmitSession)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/open", h.ListOpenOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Get("/{orderID}/history", h.GetOrderHistory)
		r.Post("/{orderID}/status", h.UpdateStatus)
		r.Post("/{orderID}/cancel", h.CancelOrder)
	})

	r.Get("/events", h.StreamEvents)

	return r
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	if h.health != nil {
		if err := h.health.Ping(ctx); err != nil {
			healthy = false
		}
	}

	response := map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"service":     "wolfpack-orders",
		"subscribers": h.hub.SubscriberCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}
	json.NewEncoder(w).Encode(response)
}

// ListCategories handles GET /menu/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	categories, err := h.catalog.GetCategories(r.Context())
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ListItems handles GET /menu/categories/{categoryID}/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	categoryID := chi.URLParam(r, "categoryID")

	items, err := h.catalog.GetItemsByCategory(r.Context(), categoryID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

type addItemRequest struct {
	MenuItemID     string `json:"menu_item_id"`
	Quantity       int    `json:"quantity"`
	Customizations string `json:"customizations,omitempty"`
}

// AddItem handles POST /tables/{tableID}/session/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if err := validation.ValidateAddItemRequest(tableID, req.MenuItemID, req.Quantity, req.Customizations); err != nil {
		h.logger.Debug("validation_failed", "Add item request rejected", requestID, map[string]interface{}{
			"table_id": tableID,
			"reason":   err.Error(),
		})
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, err := h.sessions.AddItem(ctx, tableID, req.MenuItemID, req.Quantity, req.Customizations)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity handles PATCH /tables/{tableID}/session/items/{itemID}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")
	itemID := chi.URLParam(r, "itemID")

	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, err := h.sessions.UpdateQuantity(ctx, tableID, itemID, req.Quantity)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// RemoveItem handles DELETE /tables/{tableID}/session/items/{itemID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")
	itemID := chi.URLParam(r, "itemID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, err := h.sessions.RemoveItem(ctx, tableID, itemID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// GetSession handles GET /tables/{tableID}/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")

	sess, err := h.sessions.GetSession(r.Context(), tableID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// AbandonSession handles DELETE /tables/{tableID}/session
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")

	if err := h.sessions.Abandon(r.Context(), tableID); err != nil {
		h.writeError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitRequest struct {
	MemberID *string `json:"member_id,omitempty"`
}

// SubmitSession handles POST /tables/{tableID}/session/submit
func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	tableID := chi.URLParam(r, "tableID")

	var req submitRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.sessions.Submit(ctx, tableID, req.MemberID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.logger.Debug("order_submitted", "Session submitted as order", requestID, map[string]interface{}{
		"order_number": order.Number,
		"table_id":     tableID,
		"total_amount": order.TotalAmount,
	})
	h.writeJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /orders/{orderID}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	orderID := chi.URLParam(r, "orderID")

	order, err := h.engine.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// GetOrderHistory handles GET /orders/{orderID}/history
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	orderID := chi.URLParam(r, "orderID")

	history, err := h.engine.GetHistory(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
}

// UpdateStatus handles POST /orders/{orderID}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}
	if req.Status == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "status is required", requestID)
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.engine.Transition(ctx, orderID, models.OrderStatus(req.Status), actor)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

// CancelOrder handles POST /orders/{orderID}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	orderID := chi.URLParam(r, "orderID")

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
			return
		}
	}
	if err := validation.ValidateCancelReason(req.Reason); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.engine.Cancel(ctx, orderID, req.Reason, actor)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// ListOpenOrders handles GET /orders/open. The role and table_id query
// parameters select the same filter a live subscription would use, so a
// client can resynchronize after missing events.
func (h *Handler) ListOpenOrders(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.hub.Reconcile(ctx, filter)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// StreamEvents handles GET /events as a server-sent event stream. The
// subscription lives until the client disconnects.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	role := models.SubscriberRole(r.URL.Query().Get("role"))
	if !models.ValidRole(role) {
		h.writeErrorResponse(w, http.StatusBadRequest, "unknown role", requestID)
		return
	}
	if role == models.RoleCustomer && r.URL.Query().Get("table_id") == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "table_id is required for customer subscriptions", requestID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeErrorResponse(w, http.StatusInternalServerError, "streaming unsupported", requestID)
		return
	}

	filter := models.FilterForRole(role, r.URL.Query().Get("table_id"))
	sub := h.hub.Subscribe(role, filter)
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("stream_opened", "Event stream opened", requestID, map[string]interface{}{
		"role":     string(role),
		"table_id": filter.TableID,
		"station":  string(filter.Station),
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("stream_closed", "Event stream closed by client", requestID, nil)
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("event_encoding_failed", "Failed to encode event", requestID, err, nil)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func filterFromQuery(r *http.Request) (models.EventFilter, error) {
	tableID := r.URL.Query().Get("table_id")

	if roleParam := r.URL.Query().Get("role"); roleParam != "" {
		role := models.SubscriberRole(roleParam)
		if !models.ValidRole(role) {
			return models.EventFilter{}, fmt.Errorf("unknown role %q", roleParam)
		}
		return models.FilterForRole(role, tableID), nil
	}

	filter := models.EventFilter{TableID: tableID}
	if station := r.URL.Query().Get("station"); station != "" {
		switch models.Station(station) {
		case models.StationKitchen, models.StationBar:
			filter.Station = models.Station(station)
		default:
			return models.EventFilter{}, fmt.Errorf("unknown station %q", station)
		}
	}
	return filter, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeError maps a service error onto an HTTP status code
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	var accessErr *models.AccessDeniedError
	var transitionErr *models.InvalidTransitionError
	var depErr *models.DependencyError

	switch {
	case errors.As(err, &accessErr):
		h.writeErrorResponse(w, http.StatusForbidden, accessErr.Error(), requestID)
	case errors.As(err, &transitionErr):
		h.writeErrorResponse(w, http.StatusConflict, transitionErr.Error(), requestID)
	case errors.Is(err, models.ErrStaleOrderState):
		h.writeErrorResponse(w, http.StatusConflict, err.Error(), requestID)
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrItemNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error(), requestID)
	case errors.Is(err, models.ErrInvalidQuantity), errors.Is(err, models.ErrEmptyCart), errors.Is(err, models.ErrItemUnavailable):
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
	case errors.As(err, &depErr):
		h.logger.Error("dependency_unavailable", "Backing dependency failed", requestID, err, map[string]interface{}{
			"dependency": depErr.Dependency,
		})
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "Service temporarily unavailable", requestID)
	default:
		h.logger.Error("request_failed", "Unhandled error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}
	json.NewEncoder(w).Encode(errorResponse)
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets the wrapped writer keep serving SSE streams
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
