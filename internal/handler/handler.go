package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"order-desk/internal/middleware"
	"order-desk/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// respond writes the standard error body carrying the request's correlation ID.
func respond(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("error", code).
		Str("message", message).
		Int("status", status).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.RequestIDFromContext(r.Context()),
	})
}

// writeError maps a service error to its HTTP status. Errors that are not
// domain errors are reported as 500 without exposing their text.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("unexpected error")
		respond(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}
	respond(w, r, statusFor(de.Code), de.Code, de.Message, logger)
}

// writeCheckoutError is writeError for checkout endpoints, where every voucher
// rejection (including an unknown code) and an unknown product is a problem
// with the submitted cart.
func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case model.ErrCodeVoucherNotFound:
			respond(w, r, http.StatusUnprocessableEntity, de.Code, de.Message, logger)
			return
		case model.ErrCodeProductNotFound:
			respond(w, r, http.StatusBadRequest, de.Code, de.Message, logger)
			return
		}
	}
	writeError(w, r, err, logger)
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeInvalidInput, model.ErrCodeMissingDenyReason:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeVoucherNotFound, model.ErrCodeOrderNotFound, model.ErrCodeProductNotFound:
		return http.StatusNotFound
	case model.ErrCodeVoucherHasUsageHistory, model.ErrCodeVoucherCodeExists, model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeVoucherInactive,
		model.ErrCodeVoucherNotYetStarted,
		model.ErrCodeVoucherExpired,
		model.ErrCodeVoucherUsageLimitReached,
		model.ErrCodeVoucherBelowMinimumOrder:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body is allowed only when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return nil
	}
	return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
}

// pathUUID parses the {id} route parameter.
func pathUUID(r *http.Request, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.InvalidInput("invalid " + what + " ID format")
	}
	return id, nil
}

// pagination reads limit and offset query parameters. Missing values are
// left at zero for the service to default.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.InvalidInput("invalid limit parameter")
		}
	}
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.InvalidInput("invalid offset parameter")
		}
	}
	return limit, offset, nil
}
