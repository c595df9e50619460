package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type recordedRequest struct {
	path  string
	query url.Values
}

type fakeVendor struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	delay    time.Duration
}

func (f *fakeVendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{path: r.URL.Path, query: r.URL.Query()})
	status, body, delay := f.status, f.body, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeVendor) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type callObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *callObserver) VendorCall(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op+":"+outcome)
}

func setup(t *testing.T, vendor *fakeVendor, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(vendor)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, Key: "k", User: "u", Password: "p", Timeout: time.Second}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(cfg, logger.Discard(), opts...)
}

// ── catalogue ─────────────────────────────────────────────────

func TestFetchAvailability_Params(t *testing.T) {
	vendor := &fakeVendor{body: `[{"Rez_ID":"XML-1","Daily_Rental":"45,50"}]`}
	c := setup(t, vendor)

	records, err := c.FetchAvailability(context.Background(), model.AvailabilityQuery{
		PickupLocationID:  "12",
		DropoffLocationID: "14",
		Pickup:            time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Dropoff:           time.Date(2025, 6, 5, 9, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "XML-1", records[0]["Rez_ID"])

	req := vendor.last(t)
	assert.Equal(t, availabilityPath, req.path)
	q := req.query
	assert.Equal(t, "k", q.Get("Key_Hack"))
	assert.Equal(t, "u", q.Get("User_Name"))
	assert.Equal(t, "p", q.Get("User_Pass"))
	assert.Equal(t, "12", q.Get("Pickup_ID"))
	assert.Equal(t, "14", q.Get("Drop_Off_ID"))
	assert.Equal(t, "01", q.Get("Pickup_Day"))
	assert.Equal(t, "06", q.Get("Pickup_Month"))
	assert.Equal(t, "2025", q.Get("Pickup_Year"))
	assert.Equal(t, "09", q.Get("Drop_Off_Hour"))
	assert.Equal(t, "05", q.Get("Drop_Off_Min"))
	assert.Equal(t, "Hepsi", q.Get("Arac_Tipi_Ara"))
	assert.Equal(t, "EURO", q.Get("Currency"))
	assert.Equal(t, "TR", q.Get("Lng_X"))
	assert.Equal(t, "01.03.2025", q.Get("Zaman"))
}

func TestFetchAvailability_MinimumPeriodNoticeDropped(t *testing.T) {
	vendor := &fakeVendor{body: `[
		{"success":"False","error":"Min. Kiralama Süresi 3 gün"},
		{"Rez_ID":"XML-2","Daily_Rental":"30"}
	]`}
	c := setup(t, vendor)

	records, err := c.FetchAvailability(context.Background(), model.AvailabilityQuery{PickupLocationID: "1", DropoffLocationID: "1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "XML-2", records[0]["Rez_ID"])
}

func TestFetchAvailability_VendorErrorSurfaced(t *testing.T) {
	vendor := &fakeVendor{body: `[{"success":"False","error":"Yetkisiz kullanici"}]`}
	c := setup(t, vendor)

	_, err := c.FetchAvailability(context.Background(), model.AvailabilityQuery{PickupLocationID: "1", DropoffLocationID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVendorResponse))
	assert.Contains(t, err.Error(), "Yetkisiz")
}

func TestFetchAvailability_RequiresLocations(t *testing.T) {
	c := setup(t, &fakeVendor{})
	_, err := c.FetchAvailability(context.Background(), model.AvailabilityQuery{PickupLocationID: "1"})
	assert.Error(t, err)
}

func TestFetchGroups_SingleObjectAndEmpty(t *testing.T) {
	vendor := &fakeVendor{body: `{"group_id":"7","brand":"Fiat"}`}
	c := setup(t, vendor)

	groups, err := c.FetchGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, groupsPath, vendor.last(t).path)

	vendor.body = "  "
	groups, err = c.FetchGroups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFetchLocations_BadPayload(t *testing.T) {
	c := setup(t, &fakeVendor{body: `[not json`})
	_, err := c.FetchLocations(context.Background())
	assert.True(t, errors.Is(err, ErrBadPayload))
}

func TestFetchLocations_HTTPError(t *testing.T) {
	c := setup(t, &fakeVendor{status: http.StatusBadGateway})
	_, err := c.FetchLocations(context.Background())
	assert.True(t, errors.Is(err, ErrVendorResponse))
}

// ── booking ───────────────────────────────────────────────────

func submission() model.BookingSubmission {
	return model.BookingSubmission{
		Identity:          model.VehicleIdentity{ReservationID: "XML-1", ParkID: "77"},
		GroupID:           "7",
		PickupLocationID:  "12",
		DropoffLocationID: "14",
		Pickup:            time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Dropoff:           time.Date(2025, 6, 5, 10, 30, 0, 0, time.UTC),
		Renter:            model.Renter{FirstName: "Ada", LastName: "Lovelace", Phone: "123"},
		Extras:            model.ExtrasSelection{CDW: true},
		PartnerReference:  "XDRIVE-1",
		RentPrice:         180.5,
		ExtraPrice:        20,
	}
}

func TestSubmitBooking_Params(t *testing.T) {
	vendor := &fakeVendor{body: `[{"rez_id":"R-9","ID":44,"Status":"True"}]`}
	c := setup(t, vendor)

	resp, err := c.SubmitBooking(context.Background(), submission())
	require.NoError(t, err)
	assert.Equal(t, "R-9", resp["rez_id"])

	req := vendor.last(t)
	assert.Equal(t, savePath, req.path)
	q := req.query
	assert.Equal(t, "77", q.Get("Cars_Park_ID"))
	assert.Equal(t, "7", q.Get("Group_ID"))
	assert.Equal(t, "XML-1740821400000", q.Get("Rez_ID"))
	assert.Equal(t, "5555555555", q.Get("MobilePhone"), "short phone numbers are replaced")
	assert.Equal(t, "11111111111", q.Get("Rental_ID"))
	assert.Equal(t, "ON", q.Get("CDW"))
	assert.Equal(t, "OFF", q.Get("Baby_Seat"))
	assert.Equal(t, "XDRIVE-1", q.Get("Your_Rez_ID"))
	assert.Equal(t, "180.5", q.Get("Your_Rent_Price"))
	assert.Equal(t, "20", q.Get("Your_Extra_Price"))
	assert.Equal(t, "0", q.Get("Your_Drop_Price"))
	assert.Equal(t, "0", q.Get("Payment_Type"))
	assert.Equal(t, "30", q.Get("Drop_Off_Min"))
	assert.Equal(t, "EURO", q.Get("Currency"))
}

func TestSubmitBooking_EmptyBody(t *testing.T) {
	c := setup(t, &fakeVendor{body: `[]`})
	resp, err := c.SubmitBooking(context.Background(), submission())
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestSubmitBooking_ClientErrorIsRejection(t *testing.T) {
	c := setup(t, &fakeVendor{status: http.StatusBadRequest})
	_, err := c.SubmitBooking(context.Background(), submission())
	assert.True(t, errors.Is(err, reserrors.ErrVendorRejected))
}

func TestSubmitBooking_ServerErrorIsNotRejection(t *testing.T) {
	c := setup(t, &fakeVendor{status: http.StatusInternalServerError})
	_, err := c.SubmitBooking(context.Background(), submission())
	require.Error(t, err)
	assert.False(t, errors.Is(err, reserrors.ErrVendorRejected))
}

func TestSubmitBooking_TimeoutSurfacesDeadline(t *testing.T) {
	obs := &callObserver{}
	c := setup(t, &fakeVendor{delay: time.Second}, WithObserver(obs))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.SubmitBooking(ctx, submission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, []string{"book:timeout"}, obs.calls)
}

// ── cancel ────────────────────────────────────────────────────

func TestCancelBooking(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "acknowledged", body: `[{"success":"True"}]`},
		{name: "empty body", body: ``},
		{name: "refused", body: `[{"success":"False","error":"already cancelled"}]`, wantErr: true},
		{name: "http error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendor := &fakeVendor{status: tt.status, body: tt.body}
			c := setup(t, vendor)

			err := c.CancelBooking(context.Background(), "R-9", "44")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			req := vendor.last(t)
			assert.Equal(t, cancelPath, req.path)
			assert.Equal(t, "R-9", req.query.Get("Rez_ID"))
			assert.Equal(t, "44", req.query.Get("ID"))
		})
	}
}
