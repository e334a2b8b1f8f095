package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/interfaces/http/dto"
)

var validate = validator.New()

// decodeAndValidate decodes a JSON request body into v and runs struct
// validation on it. An empty body is an error; callers with optional bodies
// check ContentLength first.
func decodeAndValidate(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domainErrors.ErrInvalidInput
		}
		return err
	}
	if err := validate.Struct(v); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain and validation errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: validationErrs.Error(),
		})
		return
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			Error: domainErr.Message,
			Code:  domainErr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrPendingAuthNotFound),
		errors.Is(err, domainErrors.ErrOrderNotFound),
		errors.Is(err, domainErrors.ErrPaymentNotFound),
		errors.Is(err, domainErrors.ErrInvoiceNotFound),
		errors.Is(err, domainErrors.ErrTransactionNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, domainErrors.ErrInvalidStateTransition):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "invalid_state"})
	case errors.Is(err, domainErrors.ErrInvalidInput),
		errors.Is(err, domainErrors.ErrValidationFailed):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "invalid_input"})
	case errors.Is(err, domainErrors.ErrGatewayUnavailable),
		errors.Is(err, domainErrors.ErrGatewayTimeout):
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Code: "gateway_unavailable"})
	case errors.Is(err, domainErrors.ErrLockAcquisitionFailed):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "locked"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "internal"})
	}
}
