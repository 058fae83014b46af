package handler

import (
	"net/http"
	"strings"

	"order-desk/internal/middleware"
	"order-desk/internal/model"
	"order-desk/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), &req)
	if err != nil {
		writeCheckoutError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests. Admins may filter by user_id.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter := model.OrderFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: model.OrderStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	orders, err := h.service.List(r.Context(), middleware.PrincipalFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "order")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Approve handles PUT /api/orders/{id}/approve requests.
func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "order")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Approve(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Deny handles PUT /api/orders/{id}/deny requests. The reason is read from
// the reason query parameter or, failing that, the JSON body.
func (h *OrderHandler) Deny(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "order")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	reason := r.URL.Query().Get("reason")
	if strings.TrimSpace(reason) == "" {
		var body model.DenyRequest
		if err := decodeJSON(w, r, &body, true); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		reason = body.Reason
	}

	result, err := h.service.Deny(r.Context(), middleware.PrincipalFromContext(r.Context()), id, reason)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
