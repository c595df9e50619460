package fields

// Field names one logical value the vendor may spell in many ways.
type Field string

const (
	DailyPrice Field = "daily_price"
	TotalPrice Field = "total_price"

	ReservationID Field = "reservation_id"
	ParkID        Field = "vehicle_park_id"
	GroupID       Field = "group_id"

	ImagePath    Field = "image_path"
	Brand        Field = "brand"
	Model        Field = "model"
	CarName      Field = "car_name"
	GroupStr     Field = "group_str"
	Transmission Field = "transmission"
	Fuel         Field = "fuel"
	AirCondition Field = "air_condition"
	SIPP         Field = "sipp"
	KmLimit      Field = "km_limit"

	Status    Field = "status"
	Available Field = "available"
	Quota     Field = "quota"
	Days      Field = "days"
	Services  Field = "services"

	Seats   Field = "seats"
	Doors   Field = "doors"
	Bags    Field = "bags"
	BigBags Field = "big_bags"

	Provision Field = "provision"
	DropPrice Field = "drop_price"

	DriverAge      Field = "driver_age"
	YoungDriverAge Field = "young_driver_age"
	LicenseAge     Field = "license_age"

	// group catalogue records
	GroupName  Field = "group_name"
	GroupModel Field = "group_model"

	// Services line items
	ServiceName       Field = "service_name"
	ServiceTotalPrice Field = "service_total_price"
	ServiceDesc       Field = "service_desc"

	// legacy top-level extras, -1 meaning not offered
	LegacyBabySeat         Field = "legacy_baby_seat"
	LegacyNavigation       Field = "legacy_navigation"
	LegacyAdditionalDriver Field = "legacy_additional_driver"
	LegacyCDW              Field = "legacy_cdw"
	LegacySCDW             Field = "legacy_scdw"
	LegacyLCF              Field = "legacy_lcf"
	LegacyYoungDriver      Field = "legacy_young_driver"

	// booking save replies
	BookingReservationID Field = "booking_reservation_id"
	VendorInternalID     Field = "vendor_internal_id"
	Success              Field = "success"
	ErrorMessage         Field = "error"
	RegistrationNo       Field = "registration_no"
)

// Candidates is the ordered list of known spellings for one field, plus the
// lowercase substrings used when none of them is present.
type Candidates struct {
	Keys   []string
	Topics []string
	// Price fields treat values that parse to <= 0 as absent.
	Price bool
}

type Table map[Field]Candidates

var DefaultTable = Table{
	DailyPrice: {
		Keys: []string{
			"Daily_Rental", "daily_Rental", "DailyRental", "dailyRental", "DAILY_RENTAL", "daily_rental",
			"Rental", "rental", "RENTAL",
			"Price", "price", "PRICE",
			"Daily_Price", "daily_price", "DAILY_PRICE",
		},
		Price: true,
	},
	TotalPrice: {
		Keys: []string{
			"Total_Rental", "total_Rental", "TotalRental", "totalRental", "TOTAL_RENTAL", "total_rental",
			"Total", "total", "TOTAL",
			"Total_Price", "total_price", "TOTAL_PRICE",
		},
		Price: true,
	},
	ReservationID: {
		Keys:   []string{"rez_id", "Rez_ID", "rez_ID", "RezID", "rezID", "REZ_ID", "rezId"},
		Topics: []string{"rez"},
	},
	ParkID: {
		Keys:   []string{"cars_park_id", "Cars_Park_ID", "cars_Park_ID", "CarsParkID", "carsParkID", "CARS_PARK_ID", "carsParkId"},
		Topics: []string{"park", "cars"},
	},
	GroupID: {
		Keys:   []string{"group_id", "Group_ID", "group_ID", "GroupID", "groupID", "GROUP_ID", "groupId"},
		Topics: []string{"groupid", "group_id", "group"},
	},
	ImagePath: {
		Keys: []string{"Image_Path", "image_Path", "image_path", "IMAGE_PATH", "ImagePath", "imagePath"},
	},
	Brand:        {Keys: []string{"Brand", "brand", "BRAND"}},
	Model:        {Keys: []string{"Car_Name", "car_Name", "CAR_NAME", "Model", "model", "MODEL", "Type", "type"}},
	CarName:      {Keys: []string{"Car_Name", "car_Name", "CAR_NAME"}},
	GroupStr:     {Keys: []string{"group_str", "Group_Str", "GROUP_STR", "groupStr"}},
	Transmission: {Keys: []string{"Transmission", "transmission", "TRANSMISSION"}},
	Fuel:         {Keys: []string{"Fuel", "fuel", "FUEL"}},
	AirCondition: {Keys: []string{"AirCondition", "air_condition", "Air_Condition", "airCondition", "AIR_CONDITION"}},
	SIPP:         {Keys: []string{"SIPP", "sipp", "sipp_code"}},
	KmLimit:      {Keys: []string{"km_limit", "Km_Limit", "km_Limit", "KmLimit"}},

	Status:    {Keys: []string{"Status", "status", "STATUS"}},
	Available: {Keys: []string{"Available", "available", "AVAILABLE", "Is_Available", "is_available"}},
	Quota:     {Keys: []string{"Quota", "quota", "QUOTA"}},
	Days:      {Keys: []string{"Days", "days"}},
	Services:  {Keys: []string{"Services", "services"}},

	Seats:   {Keys: []string{"Chairs", "chairs", "CHAIRS"}},
	Doors:   {Keys: []string{"Doors", "doors", "DOORS"}},
	Bags:    {Keys: []string{"small_bags", "Small_Bags", "SMALL_BAGS", "bags", "Bags"}},
	BigBags: {Keys: []string{"big_bags", "Big_Bags", "BIG_BAGS", "bigBags"}},

	Provision: {Keys: []string{"Provision", "provision"}},
	DropPrice: {Keys: []string{"Drop", "drop"}},

	DriverAge:      {Keys: []string{"driver_age", "Driver_Age", "driver_Age"}},
	YoungDriverAge: {Keys: []string{"young_drive_age", "Young_Drive_Age", "youngDriveAge"}},
	LicenseAge:     {Keys: []string{"Driving_License_Age", "driving_License_Age", "driving_license_age"}},

	GroupName:  {Keys: []string{"group_name", "Group_Name"}},
	GroupModel: {Keys: []string{"type", "Type"}},

	ServiceName:       {Keys: []string{"service_name", "Service_Name"}},
	ServiceTotalPrice: {Keys: []string{"service_total_price", "Service_Total_Price"}, Price: true},
	ServiceDesc:       {Keys: []string{"service_desc", "Service_Desc"}},

	LegacyBabySeat:         {Keys: []string{"Baby_Seat", "baby_Seat"}, Price: true},
	LegacyNavigation:       {Keys: []string{"Navigation", "navigation"}, Price: true},
	LegacyAdditionalDriver: {Keys: []string{"Additional_Driver", "additional_Driver"}, Price: true},
	LegacyCDW:              {Keys: []string{"CDW", "cdw"}, Price: true},
	LegacySCDW:             {Keys: []string{"SCDW", "scdw"}, Price: true},
	LegacyLCF:              {Keys: []string{"LCF", "lcf"}, Price: true},
	LegacyYoungDriver:      {Keys: []string{"Young_Driver", "young_Driver"}, Price: true},

	// No topic fallback here: "rez" would also hit rez_kayit_no.
	BookingReservationID: {Keys: []string{"rez_id", "Rez_ID", "rezId", "REZ_ID"}},
	VendorInternalID:     {Keys: []string{"ID", "id", "Id"}},
	Success:              {Keys: []string{"success", "Success", "SUCCESS"}},
	ErrorMessage:         {Keys: []string{"error", "Error", "message", "Message", "hata", "Hata"}},
	RegistrationNo:       {Keys: []string{"rez_kayit_no", "Rez_Kayit_No", "rezKayitNo"}},
}
