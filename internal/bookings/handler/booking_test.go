package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "carbroker/pkg/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── mock service ──────────────────────────────────────────────

type mockBookingService struct {
	confirmation *model.Confirmation
	cancellation *model.Cancellation
	locks        []model.ReservationLock
	err          error
	lastCreate   *model.BookingRequest
}

func (m *mockBookingService) Create(_ context.Context, req *model.BookingRequest) (*model.Confirmation, error) {
	m.lastCreate = req
	return m.confirmation, m.err
}

func (m *mockBookingService) Cancel(context.Context, *model.CancelRequest) (*model.Cancellation, error) {
	return m.cancellation, m.err
}

func (m *mockBookingService) ActiveLocks(context.Context) []model.ReservationLock {
	return m.locks
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"rez_id": "XML-1",
	"cars_park_id": "77",
	"group_id": "7",
	"pickup_location_id": "12",
	"dropoff_location_id": "12",
	"pickup_at": "2025-06-01T10:00:00Z",
	"dropoff_at": "2025-06-05T10:00:00Z",
	"renter": {"first_name": "Ada", "last_name": "Lovelace"},
	"daily_price": 45
}`

// ── create ────────────────────────────────────────────────────

func TestCreate_Created(t *testing.T) {
	svc := &mockBookingService{confirmation: &model.Confirmation{ReservationNumber: "RES-1-ABCDEF12", Status: model.StatusConfirmed}}
	rec := do(newRouter(svc), http.MethodPost, "/api/v1/reservations", createBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "RES-1-ABCDEF12")
	require.NotNil(t, svc.lastCreate)
	assert.Equal(t, "77", svc.lastCreate.ParkID)
	assert.Equal(t, 45.0, svc.lastCreate.DailyPrice)
}

func TestCreate_AmbiguousIsAccepted(t *testing.T) {
	svc := &mockBookingService{confirmation: &model.Confirmation{
		ReservationNumber: "RES-1-ABCDEF12",
		Status:            model.StatusPending,
		Ambiguous:         true,
		Warning:           "booking may not be final",
	}}
	rec := do(newRouter(svc), http.MethodPost, "/api/v1/reservations", createBody)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "booking may not be final", body["warning"])
	assert.Equal(t, apperrors.CodeVendorAmbiguous, body["code"])
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "already booked", err: apperrors.AlreadyBooked("XML-1/77"), body: createBody, wantCode: http.StatusConflict, wantErr: apperrors.CodeAlreadyBooked},
		{name: "vendor rejected", err: apperrors.VendorRejected("no car", nil), body: createBody, wantCode: http.StatusConflict, wantErr: apperrors.CodeVendorRejected},
		{name: "missing identity", err: apperrors.MissingIdentity([]string{"rez_id"}), body: createBody, wantCode: http.StatusUnprocessableEntity, wantErr: apperrors.CodeMissingIdentity},
		{name: "malformed json", body: `{"rez_id":`, wantCode: http.StatusBadRequest},
		{name: "unknown field", body: `{"surprise": true}`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{err: tt.err}
			rec := do(newRouter(svc), http.MethodPost, "/api/v1/reservations", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Contains(t, rec.Body.String(), tt.wantErr)
			}
		})
	}
}

// ── cancel & locks ────────────────────────────────────────────

func TestCancel_CarriesWarning(t *testing.T) {
	svc := &mockBookingService{cancellation: &model.Cancellation{
		VendorReservationID: "R-9",
		Status:              model.StatusCancelled,
		LockRemoved:         true,
		Warning:             "the rental company did not confirm the cancellation: timeout",
	}}
	body := `{"external_rez_id":"R-9","external_id":"44","rez_id":"XML-1","cars_park_id":"77",` +
		`"pickup_at":"2025-06-01T10:00:00Z","dropoff_at":"2025-06-05T10:00:00Z"}`
	rec := do(newRouter(svc), http.MethodPut, "/api/v1/reservations/cancel", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["warning"], "did not confirm")
}

func TestActiveLocks(t *testing.T) {
	svc := &mockBookingService{locks: []model.ReservationLock{
		{Identity: model.VehicleIdentity{ReservationID: "XML-1", ParkID: "77"}},
	}}
	rec := do(newRouter(svc), http.MethodGet, "/api/v1/reservations/locks", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["total_count"])
}
