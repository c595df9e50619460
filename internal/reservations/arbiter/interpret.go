package arbiter

import (
	"context"
	"errors"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/internal/supplier/fields"
	"carbroker/pkg/model"
)

type Verdict int

const (
	VerdictCommitted Verdict = iota
	VerdictRejected
	VerdictAmbiguous
)

func (v Verdict) String() string {
	switch v {
	case VerdictCommitted:
		return "committed"
	case VerdictRejected:
		return "rejected"
	case VerdictAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Interpretation is what a vendor save reply means for the local lock set.
type Interpretation struct {
	Verdict             Verdict
	VendorReservationID string
	VendorInternalID    string
	// Confirmed is the vendor's own Status flag: true means the booking is
	// final, false means it awaits confirmation on their side.
	Confirmed bool
	Reason    string
}

var resolver = fields.Default()

// InterpretBooking classifies a vendor save reply. Anything that could mean
// the vendor recorded the booking is ambiguous, never rejected.
func InterpretBooking(resp model.RawRecord, callErr error) Interpretation {
	if callErr != nil {
		switch {
		case errors.Is(callErr, reserrors.ErrVendorRejected):
			return Interpretation{Verdict: VerdictRejected, Reason: callErr.Error()}
		case errors.Is(callErr, context.DeadlineExceeded):
			return Interpretation{Verdict: VerdictAmbiguous, Reason: "vendor booking call timed out"}
		default:
			return Interpretation{Verdict: VerdictAmbiguous, Reason: "vendor booking call failed: " + callErr.Error()}
		}
	}
	if len(resp) == 0 {
		return Interpretation{Verdict: VerdictAmbiguous, Reason: "vendor returned an empty response"}
	}

	out := Interpretation{}
	out.VendorReservationID, _ = resolver.ID(resp, fields.BookingReservationID)
	out.VendorInternalID, _ = resolver.ID(resp, fields.VendorInternalID)
	if status, ok := resolver.Resolve(resp, fields.Status); ok {
		out.Confirmed = fields.IsTruthy(status)
	}
	hasID := out.VendorReservationID != ""

	success, hasSuccess := resolver.Resolve(resp, fields.Success)
	succeeded := hasSuccess && fields.IsTruthy(success)

	if msg, ok := resolver.String(resp, fields.ErrorMessage); ok && !hasID && !succeeded {
		out.Verdict = VerdictRejected
		out.Reason = msg
		return out
	}

	if hasSuccess && fields.IsFalsy(success) {
		if hasID {
			out.Verdict = VerdictAmbiguous
			out.Reason = "vendor reported failure but returned reservation " + out.VendorReservationID
			return out
		}
		out.Verdict = VerdictRejected
		out.Reason = "vehicle is no longer available"
		return out
	}

	if regNo, ok := resolver.String(resp, fields.RegistrationNo); ok && regNo == "0" {
		if hasID {
			out.Verdict = VerdictAmbiguous
			out.Reason = "vendor returned reservation " + out.VendorReservationID + " without a registration number"
			return out
		}
		out.Verdict = VerdictRejected
		out.Reason = "vendor could not register the reservation"
		return out
	}

	if !hasID {
		out.Verdict = VerdictAmbiguous
		out.Reason = "vendor response carries no reservation id"
		return out
	}

	out.Verdict = VerdictCommitted
	return out
}
