package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/reconciler/internal/application/reconcile"
	"github.com/cassiomorais/reconciler/internal/interfaces/http/dto"
)

// Reconciler is the synchronous reconciliation entrypoint exposed over HTTP.
type Reconciler interface {
	Execute(ctx context.Context, id uuid.UUID, opts ...reconcile.Option) error
}

// PendingEnqueuer pushes pending-authorization ids onto the worker's stream.
type PendingEnqueuer interface {
	PublishPendingAuthorization(ctx context.Context, pendingID string) error
}

// ReconcileHandler handles reconciliation-related HTTP requests.
type ReconcileHandler struct {
	reconciler Reconciler
	enqueuer   PendingEnqueuer
	logger     zerolog.Logger
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(reconciler Reconciler, enqueuer PendingEnqueuer, logger zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		enqueuer:   enqueuer,
		logger:     logger.With().Str("component", "reconcile_handler").Logger(),
	}
}

// Reconcile handles POST /v1/pending-authorizations/{id}/reconcile
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid pending authorization id", Code: "invalid_id"})
		return
	}

	var opts []reconcile.Option
	if r.ContentLength > 0 {
		var req dto.ReconcileRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.AuthorizationDetails != nil {
			opts = append(opts, reconcile.WithAuthorizationDetails(req.AuthorizationDetails.ToAuthorizationDetails()))
		}
		if req.OrderDetails != nil {
			opts = append(opts, reconcile.WithOrderDetails(req.OrderDetails.ToOrderDetails()))
		}
	}

	if err := h.reconciler.Execute(r.Context(), id, opts...); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IPN handles POST /v1/gateway/ipn
//
// Notifications are acknowledged fast: the pending id is validated and pushed
// onto the worker stream, the actual reconciliation happens out of band.
func (h *ReconcileHandler) IPN(w http.ResponseWriter, r *http.Request) {
	var req dto.IPNRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.enqueuer.PublishPendingAuthorization(r.Context(), req.PendingAuthorizationID); err != nil {
		h.logger.Error().
			Err(err).
			Str("pending_id", req.PendingAuthorizationID).
			Msg("failed to enqueue pending authorization from notification")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.IPNAcceptedResponse{
		PendingAuthorizationID: req.PendingAuthorizationID,
		Status:                 "queued",
	})
}
