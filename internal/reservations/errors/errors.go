package errors

import "errors"

var (
	// ErrConflict means the local lock set already holds the vehicle for an
	// overlapping window.
	ErrConflict = errors.New("vehicle already booked for an overlapping window")

	ErrMissingIdentity = errors.New("vehicle identity is incomplete")

	ErrInvalidRange = errors.New("dropoff must be after pickup")

	// ErrVendorRejected marks an unambiguous refusal by the vendor.
	ErrVendorRejected = errors.New("vendor rejected the booking")

	// ErrVendorAmbiguous marks a reply that neither confirms nor refuses.
	ErrVendorAmbiguous = errors.New("vendor response is ambiguous")

	ErrPersistenceDegraded = errors.New("lock set could not be persisted")

	ErrLockTimeout = errors.New("timed out waiting for the vehicle lock")
)
