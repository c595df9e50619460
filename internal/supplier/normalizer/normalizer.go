// Package normalizer turns raw vendor availability records into canonical
// vehicles.
package normalizer

import (
	"strings"

	"carbroker/internal/supplier/fields"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"
)

const (
	DefaultImageBaseURL = "https://t1.trvcar.com/XDriveDzn/"
	// DefaultPlaceholderImage is a light grey 400x300 SVG.
	DefaultPlaceholderImage = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iNDAwIiBoZWlnaHQ9IjMwMCIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48cmVjdCB3aWR0aD0iNDAwIiBoZWlnaHQ9IjMwMCIgZmlsbD0iI2Y1ZjVmNSIvPjwvc3ZnPg=="

	defaultName     = "Unknown"
	defaultCategory = "Standard"
	defaultFuel     = "Petrol"
	defaultAir      = "A/C"
	defaultRating   = 4.5
	defaultSeats    = 5
	defaultDoors    = 5
	defaultBags     = 2

	TransmissionAutomatic = "Automatic"
	TransmissionManual    = "Manual"
)

// RejectReason says why a record was dropped; empty means accepted.
type RejectReason string

const (
	Accepted          RejectReason = ""
	RejectNoPrice     RejectReason = "no_price"
	RejectUnavailable RejectReason = "unavailable"
	RejectNoQuota     RejectReason = "no_quota"
)

type Config struct {
	ImageBaseURL     string
	PlaceholderImage string
	BaseCurrency     string
}

type Normalizer struct {
	resolver *fields.Resolver
	cfg      Config
	log      *logger.Logger
}

func New(resolver *fields.Resolver, cfg Config, log *logger.Logger) *Normalizer {
	if resolver == nil {
		resolver = fields.Default()
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if !strings.HasSuffix(cfg.ImageBaseURL, "/") {
		cfg.ImageBaseURL += "/"
	}
	if cfg.PlaceholderImage == "" {
		cfg.PlaceholderImage = DefaultPlaceholderImage
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = model.DefaultCurrency
	}
	return &Normalizer{resolver: resolver, cfg: cfg, log: log}
}

// Normalize maps one raw record. Prices stay in the vendor base currency;
// displayCurrency is only echoed for the conversion step downstream.
func (n *Normalizer) Normalize(raw model.RawRecord, groups GroupIndex, displayCurrency string) (*model.Vehicle, RejectReason) {
	if reason := n.reject(raw); reason != Accepted {
		return nil, reason
	}
	r := n.resolver

	v := &model.Vehicle{Currency: n.cfg.BaseCurrency, Rating: defaultRating}
	if displayCurrency != "" && displayCurrency != n.cfg.BaseCurrency {
		v.DisplayCurrency = displayCurrency
	}

	v.DailyPrice, _ = r.Float(raw, fields.DailyPrice)
	v.TotalPrice, _ = r.Float(raw, fields.TotalPrice)

	rawGroupID, _ := r.Resolve(raw, fields.GroupID)
	group, _ := groups.Lookup(rawGroupID)

	v.Identity.ReservationID, _ = r.ID(raw, fields.ReservationID)
	v.Identity.ParkID, _ = r.ID(raw, fields.ParkID)
	v.GroupID, _ = r.ID(raw, fields.GroupID)
	if v.Identity.ReservationID == "" {
		v.MissingFields = append(v.MissingFields, "rez_id")
	}
	if v.Identity.ParkID == "" {
		v.MissingFields = append(v.MissingFields, "cars_park_id")
	}
	if v.GroupID == "" {
		v.MissingFields = append(v.MissingFields, "group_id")
	}
	v.MissingIdentity = len(v.MissingFields) > 0

	v.Brand = firstNonEmpty(group.Brand, r.StringOr(raw, fields.Brand, ""), defaultName)
	v.Model = firstNonEmpty(group.Model, r.StringOr(raw, fields.Model, ""), defaultName)
	v.Category = firstNonEmpty(group.Category, r.StringOr(raw, fields.CarName, ""), defaultCategory)
	v.GroupStr = r.StringOr(raw, fields.GroupStr, v.Category)
	v.Transmission = r.StringOr(raw, fields.Transmission, transmissionFromGroup(v.Category))
	v.Fuel = r.StringOr(raw, fields.Fuel, defaultFuel)
	v.AirCondition = r.StringOr(raw, fields.AirCondition, defaultAir)
	v.SIPP = r.StringOr(raw, fields.SIPP, "")
	v.KmLimit = r.StringOr(raw, fields.KmLimit, "")

	v.Seats = r.IntOr(raw, fields.Seats, defaultSeats)
	v.Doors = r.IntOr(raw, fields.Doors, defaultDoors)
	v.Bags = r.IntOr(raw, fields.Bags, defaultBags)
	v.BigBags, _ = r.Int(raw, fields.BigBags)
	v.Days = r.IntOr(raw, fields.Days, 1)

	v.Provision, _ = r.Float(raw, fields.Provision)
	v.DropPrice, _ = r.Float(raw, fields.DropPrice)

	v.DriverAge = r.StringOr(raw, fields.DriverAge, "")
	v.YoungDriverAge = r.StringOr(raw, fields.YoungDriverAge, "")
	v.LicenseAge = r.StringOr(raw, fields.LicenseAge, "")

	v.Extras, v.ExtrasInfo = n.extractExtras(raw, v.Days)
	v.Image = n.image(group, raw)

	return v, Accepted
}

// NormalizeAll keeps the accepted records in input order.
func (n *Normalizer) NormalizeAll(records []model.RawRecord, groups GroupIndex, displayCurrency string) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(records))
	rejected := 0
	for i, raw := range records {
		v, reason := n.Normalize(raw, groups, displayCurrency)
		if reason != Accepted {
			rejected++
			n.log.Debug("Vendor record rejected", "index", i, "reason", string(reason))
			continue
		}
		if v.MissingIdentity {
			n.log.Warn("Vehicle emitted without full identity", "index", i, "missing", v.MissingFields)
		}
		out = append(out, *v)
	}
	if rejected > 0 {
		n.log.Info("Vendor records normalized", "accepted", len(out), "rejected", rejected)
	}
	return out
}

func (n *Normalizer) reject(raw model.RawRecord) RejectReason {
	r := n.resolver
	_, hasDaily := r.Resolve(raw, fields.DailyPrice)
	_, hasTotal := r.Resolve(raw, fields.TotalPrice)
	if !hasDaily && !hasTotal {
		return RejectNoPrice
	}
	if r.Falsy(raw, fields.Status) || r.Falsy(raw, fields.Available) {
		return RejectUnavailable
	}
	if quota, ok := r.Float(raw, fields.Quota); ok && quota == 0 {
		return RejectNoQuota
	}
	return Accepted
}

// image prefers the group catalogue picture, then the record's own path.
func (n *Normalizer) image(group model.GroupMetadata, raw model.RawRecord) string {
	if name := imageFileName(group.ImagePath); name != "" {
		return n.cfg.ImageBaseURL + name
	}
	if path, ok := n.resolver.String(raw, fields.ImagePath); ok {
		if name := imageFileName(path); name != "" {
			return n.cfg.ImageBaseURL + name
		}
	}
	return n.cfg.PlaceholderImage
}

// imageFileName reduces a vendor image reference to a bare file name.
func imageFileName(path string) string {
	p := strings.TrimSpace(path)
	if fields.IsEmpty(p) || strings.HasPrefix(p, "data:") {
		return ""
	}
	if strings.Contains(p, "://") {
		p = p[strings.LastIndex(p, "/")+1:]
	}
	return strings.TrimPrefix(p, "/")
}

func transmissionFromGroup(category string) string {
	upper := strings.ToUpper(category)
	if strings.Contains(upper, "AUTOMATIC") || strings.Contains(upper, "OTOMATİK") || strings.Contains(upper, "OTOMATIK") {
		return TransmissionAutomatic
	}
	return TransmissionManual
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
