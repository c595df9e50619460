package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is a half-open calendar-date window [Pickup, Dropoff).
type DateRange struct {
	Pickup  time.Time `json:"pickup" bson:"pickup"`
	Dropoff time.Time `json:"dropoff" bson:"dropoff"`
}

// NewDateRange truncates both instants to their calendar date.
func NewDateRange(pickup, dropoff time.Time) DateRange {
	return DateRange{Pickup: Date(pickup), Dropoff: Date(dropoff)}
}

// ParseDateRange accepts "2006-01-02" or RFC3339 values.
func ParseDateRange(pickup, dropoff string) (DateRange, error) {
	p, err := ParseDate(pickup)
	if err != nil {
		return DateRange{}, fmt.Errorf("pickup: %w", err)
	}
	d, err := ParseDate(dropoff)
	if err != nil {
		return DateRange{}, fmt.Errorf("dropoff: %w", err)
	}
	return DateRange{Pickup: p, Dropoff: d}, nil
}

func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Date(t), nil
}

// Date drops the clock part, keeping the wall-clock calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the two half-open ranges share at least one day.
// Adjacent ranges (a.Dropoff == b.Pickup) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Dropoff.After(other.Pickup) && r.Pickup.Before(other.Dropoff)
}

func (r DateRange) Validate() error {
	if r.Pickup.IsZero() || r.Dropoff.IsZero() {
		return fmt.Errorf("pickup and dropoff dates are required")
	}
	if !r.Dropoff.After(r.Pickup) {
		return fmt.Errorf("dropoff %s must be after pickup %s", r.Dropoff.Format(DateLayout), r.Pickup.Format(DateLayout))
	}
	return nil
}

// Days is the rental length in whole days, never less than one.
func (r DateRange) Days() int {
	days := int(r.Dropoff.Sub(r.Pickup).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func (r DateRange) String() string {
	return r.Pickup.Format(DateLayout) + ".." + r.Dropoff.Format(DateLayout)
}

// ReservationLock asserts that Identity is unavailable for Range.
type ReservationLock struct {
	Identity VehicleIdentity `json:"identity" bson:",inline"`
	Range    DateRange       `json:"range" bson:",inline"`
}

// Key is the set-membership key of a lock: identity plus both dates.
func (l ReservationLock) Key() string {
	return l.Identity.Key() + "_" + l.Range.Pickup.Format(DateLayout) + "_" + l.Range.Dropoff.Format(DateLayout)
}
