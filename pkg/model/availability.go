package model

import "time"

// AvailabilityQuery asks the vendor for bookable vehicles. Pickup and Dropoff
// keep their clock part.
type AvailabilityQuery struct {
	PickupLocationID  string
	DropoffLocationID string
	Pickup            time.Time
	Dropoff           time.Time
	Currency          string
}
