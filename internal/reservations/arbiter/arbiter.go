// Package arbiter serializes booking attempts per vehicle and decides, from
// the vendor's reply, whether the vehicle is locked locally afterwards.
package arbiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"
)

const (
	DefaultBookingTimeout = 30 * time.Second
	DefaultCancelTimeout  = 15 * time.Second
)

type VendorBooker interface {
	SubmitBooking(ctx context.Context, sub model.BookingSubmission) (model.RawRecord, error)
}

type VendorCanceller interface {
	CancelBooking(ctx context.Context, vendorReservationID, vendorInternalID string) error
}

// LockStore is the part of the conflict cache the arbiter needs.
type LockStore interface {
	Query(r model.DateRange) []model.VehicleIdentity
	Add(ctx context.Context, id model.VehicleIdentity, r model.DateRange) bool
	Remove(ctx context.Context, id model.VehicleIdentity, r model.DateRange) bool
}

type Recorder interface {
	BookingFinished(result string, elapsed time.Duration)
	CancelFinished(vendorAcknowledged bool)
}

type Config struct {
	BookingTimeout time.Duration
	CancelTimeout  time.Duration
	// LockWait bounds the wait for a busy vehicle; zero waits as long as
	// the caller's context allows.
	LockWait time.Duration
}

type Attempt struct {
	Identity   model.VehicleIdentity
	Range      model.DateRange
	Submission model.BookingSubmission
}

type Outcome struct {
	State               string
	Verdict             Verdict
	VendorReservationID string
	VendorInternalID    string
	Confirmed           bool
	Ambiguous           bool
	Warning             string

	// Cause wraps ErrVendorAmbiguous when Ambiguous is set.
	Cause     error
	LockAdded bool
}

type CancelRequest struct {
	VendorReservationID string
	VendorInternalID    string
	Lock                model.ReservationLock
}

type CancelOutcome struct {
	VendorAcknowledged bool
	VendorError        string
	LockRemoved        bool
}

type Arbiter struct {
	locks     LockStore
	booker    VendorBooker
	canceller VendorCanceller
	mutex     *KeyedMutex
	recorder  Recorder
	cfg       Config
	log       *logger.Logger
}

func New(locks LockStore, booker VendorBooker, canceller VendorCanceller, recorder Recorder, cfg Config, log *logger.Logger) *Arbiter {
	if cfg.BookingTimeout <= 0 {
		cfg.BookingTimeout = DefaultBookingTimeout
	}
	if cfg.CancelTimeout <= 0 {
		cfg.CancelTimeout = DefaultCancelTimeout
	}
	return &Arbiter{
		locks:     locks,
		booker:    booker,
		canceller: canceller,
		mutex:     NewKeyedMutex(),
		recorder:  recorder,
		cfg:       cfg,
		log:       log,
	}
}

// Book runs one attempt through checking, locking, submitting and then
// committed or rolled back. The per-vehicle mutex is held across the vendor
// call. An ambiguous reply is committed and returned with a warning, never
// as a clean success.
func (a *Arbiter) Book(ctx context.Context, at Attempt) (*Outcome, error) {
	start := time.Now()
	if missing := missingIdentity(at.Identity); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", reserrors.ErrMissingIdentity, strings.Join(missing, ", "))
	}
	if err := at.Range.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", reserrors.ErrInvalidRange, err)
	}

	log := a.log.With(
		"vehicle", at.Identity.String(),
		"range", at.Range.String(),
		"reference", at.Submission.PartnerReference,
	)
	m := newAttemptMachine(log)

	if a.conflicts(at) {
		m.fire(ctx, eventConflict)
		a.finish(resultConflict, start)
		log.Info("Booking refused, vehicle already locked")
		return nil, conflictError(at)
	}

	m.fire(ctx, eventLock)
	lockCtx := ctx
	if a.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, a.cfg.LockWait)
		defer cancel()
	}
	unlock, err := a.mutex.Lock(lockCtx, at.Identity.Key())
	if err != nil {
		m.fire(ctx, eventRollback)
		a.finish(resultLockTimeout, start)
		return nil, fmt.Errorf("%w: %v", reserrors.ErrLockTimeout, err)
	}
	defer unlock()

	// Another attempt may have committed while we waited.
	if a.conflicts(at) {
		m.fire(ctx, eventConflict)
		a.finish(resultConflict, start)
		log.Info("Booking refused after lock, vehicle already locked")
		return nil, conflictError(at)
	}

	m.fire(ctx, eventSubmit)
	// The call is detached from the caller: once submitted, a client hang-up
	// must not turn a possible booking into a forgotten one.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.BookingTimeout)
	resp, callErr := a.booker.SubmitBooking(callCtx, at.Submission)
	cancel()

	verdict := InterpretBooking(resp, callErr)
	out := &Outcome{
		Verdict:             verdict.Verdict,
		VendorReservationID: verdict.VendorReservationID,
		VendorInternalID:    verdict.VendorInternalID,
		Confirmed:           verdict.Confirmed,
	}

	if verdict.Verdict == VerdictRejected {
		m.fire(ctx, eventRollback)
		out.State = m.current()
		a.finish(resultRejected, start)
		log.Info("Vendor rejected booking", "reason", verdict.Reason)
		return out, fmt.Errorf("%w: %s", reserrors.ErrVendorRejected, verdict.Reason)
	}

	out.LockAdded = a.locks.Add(context.WithoutCancel(ctx), at.Identity, at.Range)
	m.fire(ctx, eventCommit)
	out.State = m.current()

	if verdict.Verdict == VerdictAmbiguous {
		out.Ambiguous = true
		out.Cause = fmt.Errorf("%w: %s", reserrors.ErrVendorAmbiguous, verdict.Reason)
		out.Warning = "booking may not be final on the rental company side: " + verdict.Reason
		a.finish(resultAmbiguous, start)
		log.Warn("Ambiguous vendor response, vehicle locked anyway",
			"reason", verdict.Reason,
			"vendor_rez_id", verdict.VendorReservationID,
			"call_error", errString(callErr),
		)
		return out, nil
	}

	a.finish(resultCommitted, start)
	log.Info("Booking committed",
		"vendor_rez_id", verdict.VendorReservationID,
		"vendor_id", verdict.VendorInternalID,
		"confirmed", verdict.Confirmed,
	)
	return out, nil
}

// Cancel asks the vendor to cancel and removes the local lock whatever the
// vendor answered. It does not take the per-vehicle mutex.
func (a *Arbiter) Cancel(ctx context.Context, req CancelRequest) (*CancelOutcome, error) {
	if missing := missingIdentity(req.Lock.Identity); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", reserrors.ErrMissingIdentity, strings.Join(missing, ", "))
	}
	if err := req.Lock.Range.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", reserrors.ErrInvalidRange, err)
	}

	log := a.log.With("vehicle", req.Lock.Identity.String(), "range", req.Lock.Range.String(), "vendor_rez_id", req.VendorReservationID)
	out := &CancelOutcome{}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.CancelTimeout)
	err := a.canceller.CancelBooking(callCtx, req.VendorReservationID, req.VendorInternalID)
	cancel()
	if err != nil {
		out.VendorError = err.Error()
		log.Warn("Vendor cancellation failed, removing local lock anyway", "error", err)
	} else {
		out.VendorAcknowledged = true
	}

	out.LockRemoved = a.locks.Remove(ctx, req.Lock.Identity, req.Lock.Range)
	if a.recorder != nil {
		a.recorder.CancelFinished(out.VendorAcknowledged)
	}
	log.Info("Booking cancelled", "vendor_acknowledged", out.VendorAcknowledged, "lock_removed", out.LockRemoved)
	return out, nil
}

func (a *Arbiter) conflicts(at Attempt) bool {
	for _, id := range a.locks.Query(at.Range) {
		if id == at.Identity {
			return true
		}
	}
	return false
}

func (a *Arbiter) finish(result string, start time.Time) {
	if a.recorder != nil {
		a.recorder.BookingFinished(result, time.Since(start))
	}
}

func conflictError(at Attempt) error {
	return fmt.Errorf("%w: %s for %s", reserrors.ErrConflict, at.Identity.String(), at.Range.String())
}

func missingIdentity(id model.VehicleIdentity) []string {
	var missing []string
	if id.ReservationID == "" {
		missing = append(missing, "rez_id")
	}
	if id.ParkID == "" {
		missing = append(missing, "cars_park_id")
	}
	return missing
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
