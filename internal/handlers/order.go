package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maplecart/apiserver/internal/services"
	"github.com/maplecart/apiserver/internal/store"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
)

// OrderHandler provides HTTP handlers for checkout and the caller's own
// orders.
type OrderHandler struct {
	orderService *services.OrderService
	log          zerolog.Logger
}

// NewOrderHandler constructs a handler with the provided service.
func NewOrderHandler(orderService *services.OrderService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// OrderRouter registers the public checkout route. Guest checkout is
// permitted: the session identity, when present, becomes the owner.
func OrderRouter(r chi.Router, orderService *services.OrderService, log zerolog.Logger) {
	handler := NewOrderHandler(orderService, log)
	r.Post("/", handler.CreateOrder)
}

// UserOrderRouter registers the authenticated owner-scoped order routes.
func UserOrderRouter(r chi.Router, orderService *services.OrderService, log zerolog.Logger) {
	handler := NewOrderHandler(orderService, log)

	r.Use(RequireAuth)
	r.Get("/", handler.ListOrders)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", handler.GetOrder)
		r.Patch("/payment", handler.MarkPaid)
		r.Delete("/", handler.DeleteOrder)
	})
}

// CreateOrder validates the submitted cart and persists a new order. No
// order or items are persisted on validation failure.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order := types.Order{
		TotalAmount:     req.TotalAmount,
		CustomerName:    req.customerName(),
		CustomerEmail:   normalizeEmail(req.Email),
		CustomerPhone:   strings.TrimSpace(req.Phone),
		ShippingAddress: req.ShippingAddress,
	}
	if identity, ok := identityFromContext(r.Context()); ok {
		userID := identity.UserID
		order.UserID = &userID
	}

	items := make([]types.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, types.OrderItem{
			ProductID: item.ProductID,
			Name:      strings.TrimSpace(item.Name),
			Image:     strings.TrimSpace(item.Image),
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.orderService.Create(r.Context(), order, items)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create order")
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	writeJSON(w, http.StatusCreated, OrderCreatedResponse{
		ID:          created.ID,
		OrderNumber: created.OrderNumber,
		TotalAmount: created.TotalAmount,
		Status:      created.Status,
	})
}

// ListOrders returns the caller's orders with item counts.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, total, err := h.orderService.ListForUser(r.Context(), identity.UserID, offset, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list orders")
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, OrderListResponse{
		Items: orders,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetOrder returns the full detail of one of the caller's orders. An
// order owned by someone else is indistinguishable from a missing one.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.GetForUser(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to fetch order")
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// MarkPaid acknowledges payment on the caller's order. Repeating the call
// on an already-paid order succeeds without changing state.
func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.MarkPaid(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to mark order paid")
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// DeleteOrder removes one of the caller's orders and its items.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orderService.DeleteForUser(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to delete order")
		writeError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "order deleted"})
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items           []OrderItemRequest    `json:"items"`
	Email           string                `json:"email"`
	Phone           string                `json:"phone"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	TotalAmount     float64               `json:"total_amount"`
}

// OrderItemRequest is one submitted cart line.
type OrderItemRequest struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// OrderCreatedResponse is the checkout confirmation payload.
type OrderCreatedResponse struct {
	ID          int64   `json:"id"`
	OrderNumber string  `json:"orderNumber"`
	TotalAmount float64 `json:"totalAmount"`
	Status      string  `json:"status"`
}

// OrderListResponse is the paginated list response payload.
type OrderListResponse struct {
	Items []types.Order `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

func (req CreateOrderRequest) validate() error {
	if len(req.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return errors.New("item name is required")
		}
		if item.Quantity < 1 {
			return errors.New("item quantity must be at least 1")
		}
		if item.Price < 0 {
			return errors.New("item price must not be negative")
		}
	}

	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("a valid email is required")
	}
	if strings.TrimSpace(req.ShippingAddress.FirstName) == "" {
		return errors.New("first name is required")
	}
	if strings.TrimSpace(req.ShippingAddress.LastName) == "" {
		return errors.New("last name is required")
	}
	if strings.TrimSpace(req.ShippingAddress.Address1) == "" {
		return errors.New("address is required")
	}
	if req.TotalAmount < 0 {
		return errors.New("total amount must not be negative")
	}
	return nil
}

func (req CreateOrderRequest) customerName() string {
	return strings.TrimSpace(strings.TrimSpace(req.ShippingAddress.FirstName) + " " + strings.TrimSpace(req.ShippingAddress.LastName))
}
