package model

// RawRecord is one untyped vendor record as decoded from JSON. Keys arrive in
// whatever spelling the vendor felt like that day.
type RawRecord map[string]any

// VehicleIdentity is the composite key of one bookable vendor vehicle.
type VehicleIdentity struct {
	ReservationID string `json:"rez_id" bson:"rez_id"`
	ParkID        string `json:"cars_park_id" bson:"cars_park_id"`
}

func (id VehicleIdentity) Key() string {
	return id.ReservationID + "_" + id.ParkID
}

func (id VehicleIdentity) Complete() bool {
	return id.ReservationID != "" && id.ParkID != ""
}

func (id VehicleIdentity) String() string {
	return id.ReservationID + "/" + id.ParkID
}

// GroupMetadata is the vendor's per-group catalogue entry.
type GroupMetadata struct {
	GroupID   string `json:"group_id"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Category  string `json:"category"`
	ImagePath string `json:"image_path"`
}

type ExtraInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Vehicle is the canonical, vendor-independent view of an available car.
// Prices are always in the vendor base currency.
type Vehicle struct {
	Identity VehicleIdentity `json:"identity"`
	GroupID  string          `json:"group_id,omitempty"`

	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	GroupStr     string `json:"group_str"`
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
	AirCondition string `json:"air_condition"`
	SIPP         string `json:"sipp,omitempty"`
	KmLimit      string `json:"km_limit,omitempty"`

	Seats   int `json:"seats"`
	Doors   int `json:"doors"`
	Bags    int `json:"bags"`
	BigBags int `json:"big_bags"`

	DailyPrice float64 `json:"price_per_day"`
	TotalPrice float64 `json:"total_price"`
	Provision  float64 `json:"provision"`
	DropPrice  float64 `json:"drop_price"`
	Days       int     `json:"days"`
	Currency   string  `json:"currency"`

	// Display* carry converted prices when a display currency other than the
	// base one was requested and a rate was available.
	DisplayCurrency   string  `json:"display_currency,omitempty"`
	DisplayDailyPrice float64 `json:"display_price_per_day,omitempty"`
	DisplayTotalPrice float64 `json:"display_total_price,omitempty"`

	Extras     map[string]float64   `json:"extras"`
	ExtrasInfo map[string]ExtraInfo `json:"extras_info,omitempty"`

	DriverAge      string `json:"driver_age,omitempty"`
	YoungDriverAge string `json:"young_driver_age,omitempty"`
	LicenseAge     string `json:"driving_license_age,omitempty"`

	Image  string  `json:"image"`
	Rating float64 `json:"rating"`

	PickupLocationID  string `json:"pickup_location_id,omitempty"`
	DropoffLocationID string `json:"dropoff_location_id,omitempty"`

	MissingIdentity bool     `json:"missing_identity,omitempty"`
	MissingFields   []string `json:"missing_fields,omitempty"`
}
