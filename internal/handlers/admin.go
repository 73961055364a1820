package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maplecart/apiserver/internal/services"
	"github.com/maplecart/apiserver/internal/store"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
)

// AdminOrderHandler provides HTTP handlers for order administration.
// Routes are not ownership-filtered; the admin gate guards them.
type AdminOrderHandler struct {
	orderService *services.OrderService
	log          zerolog.Logger
}

// NewAdminOrderHandler constructs a handler with the provided service.
func NewAdminOrderHandler(orderService *services.OrderService, log zerolog.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// AdminOrderRouter registers admin order routes on the given router.
func AdminOrderRouter(r chi.Router, orderService *services.OrderService, log zerolog.Logger) {
	handler := NewAdminOrderHandler(orderService, log)

	r.Use(RequireAdmin)
	r.Get("/", handler.ListOrders)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", handler.GetOrder)
		r.Patch("/", handler.UpdateOrder)
		r.Delete("/", handler.DeleteOrder)
	})
}

// ListOrders returns all orders with item counts and owner emails.
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, total, err := h.orderService.List(r.Context(), offset, limit)
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

// GetOrder returns any order's full detail.
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Get(r.Context(), id)
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

// UpdateOrder sets status and/or payment_status. At least one field is
// required; values are checked against the known enums. No cross-axis
// constraint is enforced so manual correction stays possible.
func (h *AdminOrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AdminOrderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Status == nil && req.PaymentStatus == nil {
		writeError(w, http.StatusBadRequest, "status or payment_status is required")
		return
	}
	if req.Status != nil && !types.IsValidOrderStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.PaymentStatus != nil && !types.IsValidPaymentStatus(*req.PaymentStatus) {
		writeError(w, http.StatusBadRequest, "invalid payment_status")
		return
	}

	order, err := h.orderService.AdminUpdate(r.Context(), id, req.Status, req.PaymentStatus)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to update order")
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// DeleteOrder removes any order and its items.
func (h *AdminOrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orderService.Delete(r.Context(), id); err != nil {
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

// AdminOrderUpdateRequest carries the optional transition fields.
type AdminOrderUpdateRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}
