package handler

import (
	"net/http"

	"order-desk/internal/middleware"
	"order-desk/internal/model"
	"order-desk/internal/service"

	"github.com/rs/zerolog"
)

// VoucherHandler handles voucher catalog HTTP requests.
type VoucherHandler struct {
	service service.VoucherService
	logger  zerolog.Logger
}

// NewVoucherHandler creates a new voucher handler.
func NewVoucherHandler(service service.VoucherService, logger zerolog.Logger) *VoucherHandler {
	return &VoucherHandler{
		service: service,
		logger:  logger.With().Str("handler", "voucher").Logger(),
	}
}

// List handles GET /api/vouchers requests.
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	vouchers, err := h.service.List(r.Context(), middleware.PrincipalFromContext(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, vouchers)
}

// Create handles POST /api/vouchers requests.
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.VoucherRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// GetByID handles GET /api/vouchers/{id} requests.
func (h *VoucherHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "voucher")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// Update handles PUT /api/vouchers/{id} requests.
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "voucher")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.VoucherRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.Update(r.Context(), middleware.PrincipalFromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// Deactivate handles PUT /api/vouchers/{id}/deactivate requests.
func (h *VoucherHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "voucher")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.Deactivate(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// Delete handles DELETE /api/vouchers/{id} requests.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "voucher")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.PrincipalFromContext(r.Context()), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Validate handles POST /api/vouchers/validate requests.
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateVoucherRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Validate(r.Context(), &req)
	if err != nil {
		writeCheckoutError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
