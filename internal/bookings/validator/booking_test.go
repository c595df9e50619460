package validator

import (
	"errors"
	"testing"
	"time"

	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		ReservationID:     "XML-1740821400000",
		ParkID:            "77",
		GroupID:           "7",
		PickupLocationID:  "12",
		DropoffLocationID: "12",
		PickupAt:          time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		DropoffAt:         time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
		Renter:            model.Renter{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		DailyPrice:        45,
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	return fields
}

func TestValidate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	tests := []struct {
		name       string
		mutate     func(r *model.BookingRequest)
		wantFields []string
	}{
		{name: "valid", mutate: func(*model.BookingRequest) {}},
		{name: "identity may be empty", mutate: func(r *model.BookingRequest) { r.ReservationID, r.ParkID = "", "" }},
		{name: "bad vendor id", mutate: func(r *model.BookingRequest) { r.ParkID = "77; drop" }, wantFields: []string{"cars_park_id"}},
		{name: "group may be empty", mutate: func(r *model.BookingRequest) { r.GroupID = "" }},
		{name: "bad group id", mutate: func(r *model.BookingRequest) { r.GroupID = "7 OR 1" }, wantFields: []string{"group_id"}},
		{name: "missing renter name", mutate: func(r *model.BookingRequest) { r.Renter.FirstName = "" }, wantFields: []string{"renter.first_name"}},
		{name: "bad email", mutate: func(r *model.BookingRequest) { r.Renter.Email = "not-an-email" }, wantFields: []string{"renter.email"}},
		{name: "negative price", mutate: func(r *model.BookingRequest) { r.DailyPrice = -1 }, wantFields: []string{"daily_price"}},
		{
			name:       "dropoff before pickup",
			mutate:     func(r *model.BookingRequest) { r.DropoffAt = r.PickupAt.Add(-time.Hour) },
			wantFields: []string{"dropoff_at"},
		},
		{
			name:       "same calendar day",
			mutate:     func(r *model.BookingRequest) { r.DropoffAt = r.PickupAt.Add(6 * time.Hour) },
			wantFields: []string{"dropoff_at"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := v.Validate(req)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantFields, fieldsOf(t, err))
		})
	}
}

func TestValidateCancel(t *testing.T) {
	v := NewBookingValidator(logger.Discard())
	req := &model.CancelRequest{
		VendorReservationID: "R-9",
		VendorInternalID:    "44",
		ReservationID:       "XML-1",
		ParkID:              "77",
		PickupAt:            time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		DropoffAt:           time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, v.ValidateCancel(req))

	req.ParkID = ""
	assert.Equal(t, []string{"cars_park_id"}, fieldsOf(t, v.ValidateCancel(req)))
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{{Field: "group_id", Message: "group_id is required"}}
	assert.Equal(t, map[string]any{"group_id": "group_id is required"}, errs.Details())
	assert.Contains(t, errs.Error(), "1 error(s)")
}
