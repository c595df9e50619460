package sanitizer

import (
	"strings"

	"carbroker/pkg/locale"
	"carbroker/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// An unparseable phone is kept as typed; the vendor client substitutes its
// placeholder for anything too short.
var phonePipeline = Pipeline{
	strings.TrimSpace,
	func(s string) string {
		if e164 := NormalizePhone(s); e164 != "" {
			return e164
		}
		return s
	},
}

func SanitizeRenter(r *model.Renter) {
	r.FirstName = NormalizeName(r.FirstName)
	r.LastName = NormalizeName(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = phonePipeline.Apply(r.Phone)
	r.LicenseNumber = NormalizeCode(r.LicenseNumber)
	r.Country = NormalizeName(r.Country)
	if r.Country == "" {
		if c := locale.InferCountryFromPhone(r.Phone); c != nil {
			r.Country = c.Name
		}
	}
	r.FlightNumber = NormalizeCode(r.FlightNumber)
}

func SanitizeAddress(a *model.Address) {
	a.Address = TrimAndNormalize(a.Address)
	a.District = NormalizeName(a.District)
	a.City = NormalizeName(a.City)
}

func SanitizeVendorID(id string) string {
	return strings.TrimSpace(id)
}

func SanitizeBookingRequest(req *model.BookingRequest) {
	req.ReservationID = SanitizeVendorID(req.ReservationID)
	req.ParkID = SanitizeVendorID(req.ParkID)
	req.GroupID = SanitizeVendorID(req.GroupID)
	req.PickupLocationID = SanitizeVendorID(req.PickupLocationID)
	req.DropoffLocationID = SanitizeVendorID(req.DropoffLocationID)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Language = strings.ToUpper(strings.TrimSpace(req.Language))
	SanitizeRenter(&req.Renter)
	SanitizeAddress(&req.PickupAddress)
}

func SanitizeCancelRequest(req *model.CancelRequest) {
	req.VendorReservationID = SanitizeVendorID(req.VendorReservationID)
	req.VendorInternalID = SanitizeVendorID(req.VendorInternalID)
	req.ReservationID = SanitizeVendorID(req.ReservationID)
	req.ParkID = SanitizeVendorID(req.ParkID)
}
