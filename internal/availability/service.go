package availability

import (
	"context"
	"slices"
	"strings"
	"time"

	"carbroker/internal/supplier/normalizer"
	"carbroker/pkg/config"
	apperrors "carbroker/pkg/errors"
	"carbroker/pkg/model"

	"golang.org/x/sync/errgroup"
)

const (
	SortByPrice  = "price"
	SortByRating = "rating"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// VendorCatalog is the read side of the vendor API.
type VendorCatalog interface {
	FetchAvailability(ctx context.Context, q model.AvailabilityQuery) ([]model.RawRecord, error)
	FetchGroups(ctx context.Context) ([]model.RawRecord, error)
	FetchLocations(ctx context.Context) ([]model.RawRecord, error)
}

type SearchQuery struct {
	PickupLocationID  string
	DropoffLocationID string
	PickupAt          time.Time
	DropoffAt         time.Time
	Currency          string

	Category     string
	Transmission string
	MinPrice     *float64
	MaxPrice     *float64

	SortBy string
	Order  string
}

func (q SearchQuery) Range() model.DateRange {
	return model.NewDateRange(q.PickupAt, q.DropoffAt)
}

type Service interface {
	Search(ctx context.Context, q SearchQuery) ([]model.Vehicle, error)
	Get(ctx context.Context, reservationID string, q SearchQuery) (*model.Vehicle, error)
	Groups(ctx context.Context) ([]model.GroupMetadata, error)
	Locations(ctx context.Context) ([]model.RawRecord, error)
}

type availabilityService struct {
	catalog    VendorCatalog
	normalizer *normalizer.Normalizer
	locks      Locks
	rates      RateConverter
	groups     *TTLCache[normalizer.GroupIndex]
	locations  *TTLCache[[]model.RawRecord]
	cfg        *config.Config
}

func NewService(
	catalog VendorCatalog,
	norm *normalizer.Normalizer,
	locks Locks,
	rates RateConverter,
	cfg *config.Config,
) Service {
	return &availabilityService{
		catalog:    catalog,
		normalizer: norm,
		locks:      locks,
		rates:      rates,
		groups: NewTTLCache("groups", cfg.GroupCacheTTL, func(ctx context.Context) (normalizer.GroupIndex, error) {
			records, err := catalog.FetchGroups(ctx)
			if err != nil {
				return nil, err
			}
			return normalizer.BuildGroupIndex(records), nil
		}),
		locations: NewTTLCache("locations", cfg.GroupCacheTTL, catalog.FetchLocations),
		cfg:       cfg,
	}
}

func (s *availabilityService) Search(ctx context.Context, q SearchQuery) ([]model.Vehicle, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	started := time.Now()

	var (
		index   normalizer.GroupIndex
		records []model.RawRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		index = s.groupIndex(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.catalog.FetchAvailability(gctx, model.AvailabilityQuery{
			PickupLocationID:  q.PickupLocationID,
			DropoffLocationID: q.DropoffLocationID,
			Pickup:            q.PickupAt,
			Dropoff:           q.DropoffAt,
			Currency:          s.cfg.VendorCurrency,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Warn("Vendor availability query failed",
			"pickup_location", q.PickupLocationID,
			"dropoff_location", q.DropoffLocationID,
			"error", err,
		)
		return nil, apperrors.VendorError("the rental company could not return availability: "+err.Error(), err)
	}

	vehicles := s.normalizer.NormalizeAll(records, index, q.Currency)
	normalized := len(vehicles)
	vehicles = Filter(vehicles, q.Range(), s.locks)
	locked := normalized - len(vehicles)

	vehicles = applyListingFilters(vehicles, q)
	sortVehicles(vehicles, q.SortBy, q.Order)
	s.convertPrices(vehicles, q.Currency)

	s.cfg.Log.Info("Availability search completed",
		"pickup_location", q.PickupLocationID,
		"dropoff_location", q.DropoffLocationID,
		"range", q.Range().String(),
		"vendor_records", len(records),
		"normalized", normalized,
		"locked", locked,
		"returned", len(vehicles),
		"elapsed", time.Since(started),
	)
	return vehicles, nil
}

// Get runs a fresh search and picks one vehicle out of it; the vendor has no
// single-vehicle lookup.
func (s *availabilityService) Get(ctx context.Context, reservationID string, q SearchQuery) (*model.Vehicle, error) {
	if reservationID == "" {
		return nil, apperrors.InvalidInput("vehicle id is required")
	}
	q.Category, q.Transmission, q.MinPrice, q.MaxPrice = "", "", nil, nil
	vehicles, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range vehicles {
		if vehicles[i].Identity.ReservationID == reservationID {
			return &vehicles[i], nil
		}
	}
	return nil, apperrors.NotFoundWithID("Vehicle", reservationID)
}

func (s *availabilityService) Groups(ctx context.Context) ([]model.GroupMetadata, error) {
	index, stale, err := s.groups.Get(ctx)
	if err != nil {
		return nil, apperrors.VendorError("vehicle groups are unavailable", err)
	}
	if stale {
		s.cfg.Log.Warn("Serving stale vehicle groups")
	}
	groups := index.List()
	slices.SortFunc(groups, func(a, b model.GroupMetadata) int { return strings.Compare(a.GroupID, b.GroupID) })
	return groups, nil
}

func (s *availabilityService) Locations(ctx context.Context) ([]model.RawRecord, error) {
	locations, stale, err := s.locations.Get(ctx)
	if err != nil {
		return nil, apperrors.VendorError("rental locations are unavailable", err)
	}
	if stale {
		s.cfg.Log.Warn("Serving stale rental locations")
	}
	return locations, nil
}

// groupIndex never fails: without group metadata vehicles fall back to their
// own fields.
func (s *availabilityService) groupIndex(ctx context.Context) normalizer.GroupIndex {
	index, stale, err := s.groups.Get(ctx)
	if err != nil {
		s.cfg.Log.Warn("Vehicle groups unavailable, continuing without them", "error", err)
		return normalizer.GroupIndex{}
	}
	if stale {
		s.cfg.Log.Warn("Serving stale vehicle groups")
	}
	return index
}

func (s *availabilityService) convertPrices(vehicles []model.Vehicle, currency string) {
	for i := range vehicles {
		v := &vehicles[i]
		if v.DisplayCurrency == "" {
			continue
		}
		if s.rates == nil {
			v.DisplayCurrency = ""
			continue
		}
		daily, ok := s.rates.Convert(v.DailyPrice, currency)
		if !ok {
			v.DisplayCurrency = ""
			continue
		}
		total, _ := s.rates.Convert(v.TotalPrice, currency)
		v.DisplayDailyPrice, v.DisplayTotalPrice = daily, total
	}
}

func validateQuery(q SearchQuery) error {
	details := map[string]any{}
	if q.PickupLocationID == "" {
		details["pickup_id"] = "required"
	}
	if q.DropoffLocationID == "" {
		details["dropoff_id"] = "required"
	}
	if q.PickupAt.IsZero() {
		details["pickup_date"] = "required"
	}
	if q.DropoffAt.IsZero() {
		details["dropoff_date"] = "required"
	}
	if len(details) == 0 {
		if err := q.Range().Validate(); err != nil {
			details["dropoff_date"] = err.Error()
		}
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		details["max_price"] = "must be greater than or equal to min_price"
	}
	if len(details) > 0 {
		return apperrors.Validation("Invalid search parameters", details)
	}
	return nil
}

func applyListingFilters(vehicles []model.Vehicle, q SearchQuery) []model.Vehicle {
	if q.Category == "" && q.Transmission == "" && q.MinPrice == nil && q.MaxPrice == nil {
		return vehicles
	}
	category := strings.ToLower(q.Category)
	out := vehicles[:0]
	for _, v := range vehicles {
		if category != "" && !strings.Contains(strings.ToLower(v.Category), category) {
			continue
		}
		if q.Transmission != "" && !strings.EqualFold(v.Transmission, q.Transmission) {
			continue
		}
		if q.MinPrice != nil && v.DailyPrice < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && v.DailyPrice > *q.MaxPrice {
			continue
		}
		out = append(out, v)
	}
	return out
}

// sortVehicles leaves the vendor order alone for an unknown key.
func sortVehicles(vehicles []model.Vehicle, sortBy, order string) {
	var key func(model.Vehicle) float64
	switch strings.ToLower(sortBy) {
	case SortByPrice:
		key = func(v model.Vehicle) float64 { return v.DailyPrice }
	case SortByRating:
		key = func(v model.Vehicle) float64 { return v.Rating }
	default:
		return
	}
	desc := strings.EqualFold(order, OrderDesc)
	slices.SortStableFunc(vehicles, func(a, b model.Vehicle) int {
		ka, kb := key(a), key(b)
		if desc {
			ka, kb = kb, ka
		}
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}
