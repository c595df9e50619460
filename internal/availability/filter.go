package availability

import "carbroker/pkg/model"

// Locks is the read side of the conflict cache.
type Locks interface {
	QuerySet(r model.DateRange) map[model.VehicleIdentity]struct{}
}

// Filter drops every vehicle locked for a range overlapping r. Input order is
// kept. Vehicles without a complete identity can never be locked and pass
// through.
func Filter(vehicles []model.Vehicle, r model.DateRange, locks Locks) []model.Vehicle {
	if locks == nil {
		return vehicles
	}
	taken := locks.QuerySet(r)
	if len(taken) == 0 {
		return vehicles
	}
	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if _, locked := taken[v.Identity]; locked {
			continue
		}
		out = append(out, v)
	}
	return out
}
