package availability

import (
	"net/http"
	"time"

	apperrors "carbroker/pkg/errors"
	httputil "carbroker/pkg/http"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	defaultHour = 10
	metaMaxAge  = "public, max-age=1800"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Search answers with an empty list when the location or date parameters are
// missing, so a half-filled search form is not an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	noStore(w)
	if !hasSearchParams(r) {
		httputil.WriteList(w, []model.Vehicle{}, 0)
		return
	}
	q, err := parseSearchQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicles, err := h.service.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteList(w, vehicles, len(vehicles))
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	noStore(w)
	id := ps.ByName("id")
	if !hasSearchParams(r) {
		httputil.WriteError(w, apperrors.InvalidInput("pickupId, dropoffId, pickupDate and dropoffDate are required to look up a vehicle"))
		return
	}
	q, err := parseSearchQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicle, err := h.service.Get(r.Context(), id, q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, vehicle)
}

func (h *Handler) Groups(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	groups, err := h.service.Groups(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", metaMaxAge)
	httputil.WriteList(w, groups, len(groups))
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locations, err := h.service.Locations(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", metaMaxAge)
	httputil.WriteList(w, locations, len(locations))
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/cars", h.Search)
	router.GET("/api/v1/cars/id/:id", h.GetByID)
	router.GET("/api/v1/cars/meta/groups", h.Groups)
	router.GET("/api/v1/cars/meta/locations", h.Locations)
}

// availability changes by the minute
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

func hasSearchParams(r *http.Request) bool {
	for _, name := range []string{"pickupId", "dropoffId", "pickupDate", "dropoffDate"} {
		if httputil.QueryString(r, name) == "" {
			return false
		}
	}
	return true
}

func parseSearchQuery(r *http.Request) (SearchQuery, error) {
	q := SearchQuery{
		PickupLocationID:  httputil.QueryString(r, "pickupId"),
		DropoffLocationID: httputil.QueryString(r, "dropoffId"),
		Currency:          httputil.QueryString(r, "currency"),
		Category:          httputil.QueryString(r, "category"),
		Transmission:      httputil.QueryString(r, "transmission"),
		SortBy:            httputil.QueryString(r, "sortBy"),
		Order:             httputil.QueryString(r, "order"),
	}

	var err error
	if q.PickupAt, err = queryDateTime(r, "pickup"); err != nil {
		return q, err
	}
	if q.DropoffAt, err = queryDateTime(r, "dropoff"); err != nil {
		return q, err
	}

	if v, ok, err := httputil.QueryFloat(r, "minPrice"); err != nil {
		return q, err
	} else if ok {
		q.MinPrice = &v
	}
	if v, ok, err := httputil.QueryFloat(r, "maxPrice"); err != nil {
		return q, err
	} else if ok {
		q.MaxPrice = &v
	}
	return q, nil
}

// queryDateTime combines <prefix>Date with <prefix>Hour and <prefix>Min,
// defaulting to 10:00.
func queryDateTime(r *http.Request, prefix string) (time.Time, error) {
	date, err := model.ParseDate(httputil.QueryString(r, prefix+"Date"))
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + prefix + "Date parameter: expected YYYY-MM-DD")
	}
	hour, err := httputil.QueryInt(r, prefix+"Hour", defaultHour)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := httputil.QueryInt(r, prefix+"Min", 0)
	if err != nil {
		return time.Time{}, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, apperrors.InvalidInput("invalid " + prefix + " time")
	}
	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}
