package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"carbroker/internal/bookings/validator"
	"carbroker/internal/reservations/arbiter"
	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/config"
	apperrors "carbroker/pkg/errors"
	"carbroker/pkg/model"
	"carbroker/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	// The vendor does not hand over cars before 05:00; such hours become 10:00.
	earliestHour = 5
	defaultHour  = 10

	defaultLanguage = "TR"

	paymentPending = "pending"

	notifyTimeout = 10 * time.Second
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Confirmation, error)
	Cancel(ctx context.Context, req *model.CancelRequest) (*model.Cancellation, error)
	ActiveLocks(ctx context.Context) []model.ReservationLock
}

// Arbitrator is the booking write path.
type Arbitrator interface {
	Book(ctx context.Context, at arbiter.Attempt) (*arbiter.Outcome, error)
	Cancel(ctx context.Context, req arbiter.CancelRequest) (*arbiter.CancelOutcome, error)
}

type LockLister interface {
	Snapshot() []model.ReservationLock
}

// Notifier receives booking events after the fact. Failures never reach the
// renter.
type Notifier interface {
	BookingCreated(ctx context.Context, c model.Confirmation) error
	BookingCancelled(ctx context.Context, c model.Cancellation) error
}

type bookingService struct {
	arbiter   Arbitrator
	locks     LockLister
	notifier  Notifier
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	arb Arbitrator,
	locks LockLister,
	notifier Notifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		arbiter:   arb,
		locks:     locks,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Confirmation, error) {
	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if missing := missingIdentity(req); len(missing) > 0 {
		s.cfg.Log.Warn("Booking refused, vehicle identity incomplete", "missing", missing, "group_id", req.GroupID)
		return nil, apperrors.MissingIdentity(missing)
	}
	s.applyDefaults(req)

	now := s.now()
	prices := s.priceBreakdown(req)
	sub := model.BookingSubmission{
		Identity:          req.Identity(),
		GroupID:           req.GroupID,
		PickupLocationID:  req.PickupLocationID,
		DropoffLocationID: req.DropoffLocationID,
		Pickup:            req.PickupAt,
		Dropoff:           req.DropoffAt,
		Renter:            req.Renter,
		Address:           req.PickupAddress,
		Currency:          req.Currency,
		Extras:            req.Extras,
		PartnerReference:  fmt.Sprintf("XDRIVE-%d", now.UnixMilli()),
		RentPrice:         prices.BasePrice,
		ExtraPrice:        prices.ExtrasPrice,
		DropPrice:         req.DropPrice,
	}
	if req.SameLocation || req.PickupLocationID == req.DropoffLocationID {
		sub.DropPrice = 0
	}

	outcome, err := s.arbiter.Book(ctx, arbiter.Attempt{
		Identity:   req.Identity(),
		Range:      req.Range(),
		Submission: sub,
	})
	if err != nil {
		return nil, s.bookingError(req, err)
	}

	confirmation := &model.Confirmation{
		ReservationNumber:   reservationNumber(now),
		Identity:            req.Identity(),
		GroupID:             req.GroupID,
		Range:               req.Range(),
		PickupAt:            req.PickupAt,
		DropoffAt:           req.DropoffAt,
		Renter:              req.Renter,
		Extras:              req.Extras,
		Prices:              prices,
		Status:              model.StatusPending,
		PaymentStatus:       paymentPending,
		VendorReservationID: outcome.VendorReservationID,
		VendorInternalID:    outcome.VendorInternalID,
		Ambiguous:           outcome.Ambiguous,
		Warning:             outcome.Warning,
		Language:            req.Language,
		CreatedAt:           now,
	}
	if outcome.Confirmed && !outcome.Ambiguous {
		confirmation.Status = model.StatusConfirmed
	}

	s.cfg.Log.Info("Reservation created",
		"reservation_number", confirmation.ReservationNumber,
		"vehicle", confirmation.Identity.String(),
		"range", confirmation.Range.String(),
		"status", confirmation.Status,
		"ambiguous", confirmation.Ambiguous,
		"vendor_rez_id", confirmation.VendorReservationID,
		"total_price", prices.TotalPrice,
	)
	if outcome.Ambiguous {
		s.cfg.Log.Warn("Reservation needs manual confirmation with the rental company",
			"reservation_number", confirmation.ReservationNumber,
			"error", outcome.Cause,
		)
	}

	s.notifyAsync(ctx, "booking_created", func(ctx context.Context) error {
		return s.notifier.BookingCreated(ctx, *confirmation)
	})
	return confirmation, nil
}

func (s *bookingService) Cancel(ctx context.Context, req *model.CancelRequest) (*model.Cancellation, error) {
	sanitizer.SanitizeCancelRequest(req)
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, validationError(err)
	}

	lock := req.Lock()
	outcome, err := s.arbiter.Cancel(ctx, arbiter.CancelRequest{
		VendorReservationID: req.VendorReservationID,
		VendorInternalID:    req.VendorInternalID,
		Lock:                lock,
	})
	if err != nil {
		return nil, s.bookingError(nil, err)
	}

	cancellation := &model.Cancellation{
		Identity:            lock.Identity,
		Range:               lock.Range,
		VendorReservationID: req.VendorReservationID,
		Status:              model.StatusCancelled,
		VendorAcknowledged:  outcome.VendorAcknowledged,
		LockRemoved:         outcome.LockRemoved,
	}
	if !outcome.VendorAcknowledged {
		cancellation.Warning = "the rental company did not confirm the cancellation: " + outcome.VendorError
	}

	s.notifyAsync(ctx, "booking_cancelled", func(ctx context.Context) error {
		return s.notifier.BookingCancelled(ctx, *cancellation)
	})
	return cancellation, nil
}

func (s *bookingService) ActiveLocks(_ context.Context) []model.ReservationLock {
	return s.locks.Snapshot()
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	sanitizer.SanitizeBookingRequest(req)
}

func (s *bookingService) validate(req *model.BookingRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *bookingService) applyDefaults(req *model.BookingRequest) {
	req.PickupAt = bumpEarlyHour(req.PickupAt)
	req.DropoffAt = bumpEarlyHour(req.DropoffAt)
	if req.Currency == "" {
		req.Currency = s.cfg.VendorCurrency
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}
}

// priceBreakdown fills whatever the client left out. Commission is charged on
// the rental price only, never on extras.
func (s *bookingService) priceBreakdown(req *model.BookingRequest) model.PriceBreakdown {
	days := req.Days
	if days <= 0 {
		days = req.Range().Days()
	}
	base := req.BasePrice
	if base <= 0 {
		base = req.DailyPrice * float64(days)
	}
	commission := req.Commission
	if commission <= 0 {
		commission = s.cfg.CommissionRate * base
	}
	extras := req.Extras.TotalPrice
	total := req.TotalPrice
	if total <= 0 {
		total = base + extras + commission
	}
	payment := req.PaymentAmount
	if payment <= 0 {
		payment = commission
	}
	return model.PriceBreakdown{
		BasePrice:     round2(base),
		ExtrasPrice:   round2(extras),
		Commission:    round2(commission),
		TotalPrice:    round2(total),
		PaymentAmount: round2(payment),
		Currency:      req.Currency,
	}
}

func (s *bookingService) bookingError(req *model.BookingRequest, err error) error {
	switch {
	case errors.Is(err, reserrors.ErrConflict):
		identity := ""
		if req != nil {
			identity = req.Identity().String()
		}
		return apperrors.AlreadyBooked(identity).WithCause(err)
	case errors.Is(err, reserrors.ErrVendorRejected):
		reason := strings.TrimPrefix(err.Error(), reserrors.ErrVendorRejected.Error()+": ")
		return apperrors.VendorRejected(reason, err)
	case errors.Is(err, reserrors.ErrMissingIdentity):
		return apperrors.MissingIdentity(missingFromError(err)).WithCause(err)
	case errors.Is(err, reserrors.ErrInvalidRange):
		return apperrors.Validation(err.Error(), map[string]any{"dropoff_at": "must be after pickup_at"})
	case errors.Is(err, reserrors.ErrLockTimeout):
		return apperrors.Timeout("another booking for this car is still in progress, try again shortly")
	default:
		return apperrors.Internal("Failed to process booking", err)
	}
}

// notifyAsync outlives the request but not the notify timeout.
func (s *bookingService) notifyAsync(ctx context.Context, event string, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := send(nctx); err != nil {
			s.cfg.Log.Warn("Booking notification failed", "event", event, "error", err)
		}
	}()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid request", verrs.Details())
	}
	return apperrors.Validation(err.Error(), nil)
}

func missingIdentity(req *model.BookingRequest) []string {
	var missing []string
	if req.ReservationID == "" {
		missing = append(missing, "rez_id")
	}
	if req.ParkID == "" {
		missing = append(missing, "cars_park_id")
	}
	if req.GroupID == "" {
		missing = append(missing, "group_id")
	}
	return missing
}

func missingFromError(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "missing ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

func bumpEarlyHour(t time.Time) time.Time {
	if t.Hour() >= earliestHour {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, defaultHour, 0, 0, 0, t.Location())
}

// reservationNumber is RES-<unix millis>-<8 hex>.
func reservationNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RES-%d-%s", now.UnixMilli(), suffix)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
