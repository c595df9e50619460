package model

import (
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"

	DefaultCurrency = "EURO"
)

type Renter struct {
	FirstName     string `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string `json:"last_name" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	LicenseNumber string `json:"license_number" validate:"omitempty,max=64"`
	Country       string `json:"country" validate:"omitempty,max=64"`
	FlightNumber  string `json:"flight_number" validate:"omitempty,max=16"`
}

type Address struct {
	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city"`
}

// ExtrasSelection is what the renter ticked; TotalPrice is the client-side
// extras total for the whole stay.
type ExtrasSelection struct {
	BabySeat         bool    `json:"baby_seat"`
	Navigation       bool    `json:"navigation"`
	AdditionalDriver bool    `json:"additional_driver"`
	CDW              bool    `json:"cdw"`
	SCDW             bool    `json:"scdw"`
	LCF              bool    `json:"lcf"`
	YoungDriver      bool    `json:"young_driver"`
	TotalPrice       float64 `json:"total_price" validate:"gte=0"`
}

type BookingRequest struct {
	ReservationID string `json:"rez_id" validate:"omitempty,vendor_id"`
	ParkID        string `json:"cars_park_id" validate:"omitempty,vendor_id"`
	GroupID       string `json:"group_id" validate:"omitempty,vendor_id"`

	PickupLocationID  string `json:"pickup_location_id" validate:"required,vendor_id"`
	DropoffLocationID string `json:"dropoff_location_id" validate:"required,vendor_id"`
	PickupAddress     Address `json:"pickup_address"`
	SameLocation      bool    `json:"same_location"`

	PickupAt  time.Time `json:"pickup_at" validate:"required"`
	DropoffAt time.Time `json:"dropoff_at" validate:"required,gtfield=PickupAt"`

	Renter Renter          `json:"renter" validate:"required"`
	Extras ExtrasSelection `json:"extras"`

	BasePrice     float64 `json:"base_price" validate:"gte=0"`
	DailyPrice    float64 `json:"daily_price" validate:"gte=0"`
	TotalPrice    float64 `json:"total_price" validate:"gte=0"`
	Commission    float64 `json:"commission" validate:"gte=0"`
	PaymentAmount float64 `json:"payment_amount" validate:"gte=0"`
	DropPrice     float64 `json:"drop_price" validate:"gte=0"`
	Days          int     `json:"days" validate:"gte=0,lte=365"`
	Currency      string  `json:"currency" validate:"omitempty,max=8"`
	Language      string  `json:"language" validate:"omitempty,max=8"`
}

func (r *BookingRequest) Identity() VehicleIdentity {
	return VehicleIdentity{ReservationID: r.ReservationID, ParkID: r.ParkID}
}

func (r *BookingRequest) Range() DateRange {
	return NewDateRange(r.PickupAt, r.DropoffAt)
}

type CancelRequest struct {
	VendorReservationID string `json:"external_rez_id" validate:"required,max=64"`
	VendorInternalID    string `json:"external_id" validate:"required,max=64"`

	ReservationID string    `json:"rez_id" validate:"required,vendor_id"`
	ParkID        string    `json:"cars_park_id" validate:"required,vendor_id"`
	PickupAt      time.Time `json:"pickup_at" validate:"required"`
	DropoffAt     time.Time `json:"dropoff_at" validate:"required,gtfield=PickupAt"`
}

func (r *CancelRequest) Lock() ReservationLock {
	return ReservationLock{
		Identity: VehicleIdentity{ReservationID: r.ReservationID, ParkID: r.ParkID},
		Range:    NewDateRange(r.PickupAt, r.DropoffAt),
	}
}

// BookingSubmission is everything the vendor save endpoint needs. Pickup and
// Dropoff keep their clock part; the vendor takes hour and minute separately.
type BookingSubmission struct {
	Identity          VehicleIdentity
	GroupID           string
	PickupLocationID  string
	DropoffLocationID string
	Pickup            time.Time
	Dropoff           time.Time
	Renter            Renter
	Address           Address
	Currency          string
	Extras            ExtrasSelection
	PartnerReference  string
	RentPrice         float64
	ExtraPrice        float64
	DropPrice         float64
	PaymentType       int
}

type PriceBreakdown struct {
	BasePrice     float64 `json:"base_price"`
	ExtrasPrice   float64 `json:"extras_price"`
	Commission    float64 `json:"commission"`
	TotalPrice    float64 `json:"total_price"`
	PaymentAmount float64 `json:"payment_amount"`
	Currency      string  `json:"currency"`
}

type Confirmation struct {
	ReservationNumber   string          `json:"reservation_number"`
	Identity            VehicleIdentity `json:"identity"`
	GroupID             string          `json:"group_id"`
	Range               DateRange       `json:"range"`
	PickupAt            time.Time       `json:"pickup_at"`
	DropoffAt           time.Time       `json:"dropoff_at"`
	Renter              Renter          `json:"renter"`
	Extras              ExtrasSelection `json:"extras"`
	Prices              PriceBreakdown  `json:"prices"`
	Status              string          `json:"status"`
	PaymentStatus       string          `json:"payment_status"`
	VendorReservationID string          `json:"external_rez_id,omitempty"`
	VendorInternalID    string          `json:"external_id,omitempty"`
	Ambiguous           bool            `json:"ambiguous,omitempty"`
	Warning             string          `json:"warning,omitempty"`
	Language            string          `json:"language,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

type Cancellation struct {
	Identity            VehicleIdentity `json:"identity"`
	Range               DateRange       `json:"range"`
	VendorReservationID string          `json:"external_rez_id"`
	Status              string          `json:"status"`
	VendorAcknowledged  bool            `json:"vendor_acknowledged"`
	LockRemoved         bool            `json:"lock_removed"`
	Warning             string          `json:"warning,omitempty"`
}
