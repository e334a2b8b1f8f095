package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/reconciler/internal/application/reconcile"
	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
)

type stubReconciler struct {
	err      error
	lastID   uuid.UUID
	lastOpts []reconcile.Option
}

func (s *stubReconciler) Execute(ctx context.Context, id uuid.UUID, opts ...reconcile.Option) error {
	s.lastID = id
	s.lastOpts = opts
	return s.err
}

type stubEnqueuer struct {
	err error
	ids []string
}

func (s *stubEnqueuer) PublishPendingAuthorization(ctx context.Context, pendingID string) error {
	s.ids = append(s.ids, pendingID)
	return s.err
}

func newTestRouter(rec *stubReconciler, enq *stubEnqueuer) http.Handler {
	h := NewReconcileHandler(rec, enq, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/v1/pending-authorizations/{id}/reconcile", h.Reconcile)
	r.Post("/v1/gateway/ipn", h.IPN)
	return r
}

func TestReconcile_NoBody(t *testing.T) {
	rec := &stubReconciler{}
	router := newTestRouter(rec, &stubEnqueuer{})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/"+id.String()+"/reconcile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, rec.lastID)
	assert.Empty(t, rec.lastOpts)
}

func TestReconcile_InvalidID(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubEnqueuer{})

	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/not-a-uuid/reconcile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcile_WithSnapshotBody(t *testing.T) {
	rec := &stubReconciler{}
	router := newTestRouter(rec, &stubEnqueuer{})

	body := `{
		"authorization_details": {
			"authorization_id": "A-1",
			"state": "Declined",
			"reason_code": "InvalidPaymentMethod",
			"amount": 25.00,
			"currency": "USD"
		}
	}`
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/"+id.String()+"/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, rec.lastOpts, 1)
}

func TestReconcile_InvalidSnapshotState(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubEnqueuer{})

	body := `{"authorization_details": {"authorization_id": "A-1", "state": "Bogus"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/"+uuid.NewString()+"/reconcile", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcile_NotFound(t *testing.T) {
	rec := &stubReconciler{err: domainErrors.ErrOrderNotFound}
	router := newTestRouter(rec, &stubEnqueuer{})

	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/"+uuid.NewString()+"/reconcile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconcile_GatewayDown(t *testing.T) {
	rec := &stubReconciler{err: domainErrors.ErrGatewayUnavailable}
	router := newTestRouter(rec, &stubEnqueuer{})

	req := httptest.NewRequest(http.MethodPost, "/v1/pending-authorizations/"+uuid.NewString()+"/reconcile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIPN_Accepted(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newTestRouter(&stubReconciler{}, enq)

	id := uuid.NewString()
	body := `{"notification_type": "PaymentAuthorize", "pending_authorization_id": "` + id + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/gateway/ipn", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{id}, enq.ids)
	assert.Contains(t, w.Body.String(), "queued")
}

func TestIPN_MissingFields(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newTestRouter(&stubReconciler{}, enq)

	req := httptest.NewRequest(http.MethodPost, "/v1/gateway/ipn", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, enq.ids)
}

func TestIPN_UnknownNotificationType(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubEnqueuer{})

	body := `{"notification_type": "Refund", "pending_authorization_id": "` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/gateway/ipn", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
