// Package client talks to the rental company's JSON endpoints. Every call is
// a GET with the parameters in the query string.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	reserrors "carbroker/internal/reservations/errors"
	"carbroker/internal/supplier/fields"
	pkgclient "carbroker/pkg/client"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"
)

const (
	availabilityPath = "/JsonRez.aspx"
	savePath         = "/JsonRez_Save.aspx"
	cancelPath       = "/JsonCancel.aspx"
	groupsPath       = "/JsonGroup.aspx"
	locationsPath    = "/JsonLocations.aspx"

	defaultRentalID    = "11111111111"
	defaultMobilePhone = "5555555555"
	minPhoneLength     = 10
	allVehicleTypes    = "Hepsi"

	DefaultLanguage = "TR"
	DefaultTimeout  = 30 * time.Second
)

var (
	ErrVendorResponse = errors.New("vendor returned an error")
	ErrBadPayload     = errors.New("vendor payload could not be decoded")
)

// Observer receives one call per vendor request.
type Observer interface {
	VendorCall(operation, outcome string, elapsed time.Duration)
}

type Config struct {
	BaseURL  string
	Key      string
	User     string
	Password string
	Language string
	// Timeout bounds catalogue calls; booking and cancel calls use the
	// caller's deadline.
	Timeout time.Duration
}

type Client struct {
	http     *pkgclient.HttpClient
	cfg      Config
	resolver *fields.Resolver
	observer Observer
	log      *logger.Logger
	now      func() time.Time
}

type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithHTTPClient(h *pkgclient.HttpClient) Option {
	return func(c *Client) { c.http = h }
}

func New(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:      cfg,
		resolver: fields.Default(),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = pkgclient.NewHttpClient(cfg.BaseURL, 0)
	}
	return c
}

func (c *Client) FetchGroups(ctx context.Context) ([]model.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("Key_Hack", c.cfg.Key)
	return c.fetchList(ctx, "groups", groupsPath, params)
}

func (c *Client) FetchLocations(ctx context.Context) ([]model.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("Key_Hack", c.cfg.Key)
	return c.fetchList(ctx, "locations", locationsPath, params)
}

// FetchAvailability returns raw vehicle records. A "minimum rental period"
// notice from the vendor is dropped and the remaining records kept; any other
// error item fails the call.
func (c *Client) FetchAvailability(ctx context.Context, q model.AvailabilityQuery) ([]model.RawRecord, error) {
	if q.PickupLocationID == "" || q.DropoffLocationID == "" {
		return nil, fmt.Errorf("pickup and dropoff locations are required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	currency := q.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	params := c.credentials()
	params.Set("Pickup_ID", q.PickupLocationID)
	params.Set("Drop_Off_ID", q.DropoffLocationID)
	setDate(params, "Pickup", q.Pickup)
	setDate(params, "Drop_Off", q.Dropoff)
	params.Set("Arac_Tipi_Ara", allVehicleTypes)
	params.Set("Currency", currency)
	params.Set("Lng_X", c.cfg.Language)
	params.Set("Zaman", c.now().Format("02.01.2006"))

	records, err := c.fetchList(ctx, "availability", availabilityPath, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	first := records[0]
	msg, hasErr := c.resolver.String(first, fields.ErrorMessage)
	if !c.resolver.Falsy(first, fields.Success) && !hasErr {
		return records, nil
	}
	if !isMinimumPeriodNotice(msg) {
		return nil, fmt.Errorf("%w: %s", ErrVendorResponse, firstNonEmpty(msg, "unknown error"))
	}

	c.log.Warn("Vendor minimum rental period notice dropped", "message", msg)
	kept := records[:0:0]
	for _, rec := range records {
		m, ok := c.resolver.String(rec, fields.ErrorMessage)
		if ok && isMinimumPeriodNotice(m) {
			continue
		}
		if c.resolver.Falsy(rec, fields.Success) && !ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, nil
}

// SubmitBooking sends one booking. HTTP 4xx is an explicit rejection; 5xx,
// transport errors and timeouts are returned as plain errors so the caller
// treats them as ambiguous. An empty body yields an empty record.
func (c *Client) SubmitBooking(ctx context.Context, sub model.BookingSubmission) (model.RawRecord, error) {
	params := c.credentials()
	params.Set("Pickup_ID", sub.PickupLocationID)
	params.Set("Drop_Off_ID", sub.DropoffLocationID)
	params.Set("Name", sub.Renter.FirstName)
	params.Set("SurName", sub.Renter.LastName)
	params.Set("MobilePhone", mobilePhone(sub.Renter.Phone))
	params.Set("Mail_Adress", sub.Renter.Email)
	params.Set("Rental_ID", firstNonEmpty(sub.Renter.LicenseNumber, defaultRentalID))
	params.Set("Cars_Park_ID", sub.Identity.ParkID)
	params.Set("Group_ID", sub.GroupID)
	params.Set("Rez_ID", "XML-"+strconv.FormatInt(c.now().UnixMilli(), 10))
	setDate(params, "Pickup", sub.Pickup)
	setDate(params, "Drop_Off", sub.Dropoff)
	params.Set("Adress", sub.Address.Address)
	params.Set("District", sub.Address.District)
	params.Set("City", sub.Address.City)
	params.Set("Country", sub.Renter.Country)
	params.Set("Flight_Number", sub.Renter.FlightNumber)
	params.Set("Currency", firstNonEmpty(sub.Currency, model.DefaultCurrency))
	params.Set("Baby_Seat", onOff(sub.Extras.BabySeat))
	params.Set("Navigation", onOff(sub.Extras.Navigation))
	params.Set("Additional_Driver", onOff(sub.Extras.AdditionalDriver))
	params.Set("CDW", onOff(sub.Extras.CDW))
	params.Set("SCDW", onOff(sub.Extras.SCDW))
	params.Set("LCF", onOff(sub.Extras.LCF))
	params.Set("Young_Driver", onOff(sub.Extras.YoungDriver))
	params.Set("Your_Rez_ID", sub.PartnerReference)
	params.Set("Your_Rent_Price", formatAmount(sub.RentPrice))
	params.Set("Your_Extra_Price", formatAmount(sub.ExtraPrice))
	params.Set("Your_Drop_Price", formatAmount(sub.DropPrice))
	params.Set("Payment_Type", strconv.Itoa(sub.PaymentType))

	resp, err := c.call(ctx, "book", savePath, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: vendor answered HTTP %d", reserrors.ErrVendorRejected, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("vendor answered HTTP %d", resp.StatusCode)
	}

	records, err := decodeRecords(resp)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return model.RawRecord{}, nil
	}
	return records[0], nil
}

// CancelBooking reports an error when the vendor does not acknowledge.
func (c *Client) CancelBooking(ctx context.Context, vendorReservationID, vendorInternalID string) error {
	params := c.credentials()
	params.Set("Rez_ID", vendorReservationID)
	params.Set("ID", vendorInternalID)

	resp, err := c.call(ctx, "cancel", cancelPath, params)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrVendorResponse, resp.StatusCode)
	}

	records, err := decodeRecords(resp)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	first := records[0]
	if c.resolver.Falsy(first, fields.Success) {
		msg, _ := c.resolver.String(first, fields.ErrorMessage)
		return fmt.Errorf("%w: %s", ErrVendorResponse, firstNonEmpty(msg, "cancellation refused"))
	}
	return nil
}

func (c *Client) credentials() url.Values {
	params := url.Values{}
	params.Set("Key_Hack", c.cfg.Key)
	params.Set("User_Name", c.cfg.User)
	params.Set("User_Pass", c.cfg.Password)
	return params
}

func (c *Client) fetchList(ctx context.Context, op, path string, params url.Values) ([]model.RawRecord, error) {
	resp, err := c.call(ctx, op, path, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrVendorResponse, resp.StatusCode)
	}
	return decodeRecords(resp)
}

func (c *Client) call(ctx context.Context, op, path string, params url.Values) (*pkgclient.Response, error) {
	start := time.Now()
	resp, err := c.http.GET(ctx, path, params)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case resp.StatusCode >= 400:
		outcome = "http_" + strconv.Itoa(resp.StatusCode)
	}
	if c.observer != nil {
		c.observer.VendorCall(op, outcome, elapsed)
	}

	if err != nil {
		c.log.Warn("Vendor call failed", "operation", op, "error", err, "elapsed", elapsed)
		return nil, fmt.Errorf("vendor %s call: %w", op, err)
	}
	c.log.Debug("Vendor call", "operation", op, "status", resp.StatusCode, "elapsed", elapsed)
	return resp, nil
}

// decodeRecords accepts an array of objects, a single object or nothing.
func decodeRecords(resp *pkgclient.Response) ([]model.RawRecord, error) {
	if resp.Empty() {
		return nil, nil
	}
	body := strings.TrimSpace(string(resp.Body))
	if strings.HasPrefix(body, "{") {
		var rec model.RawRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return []model.RawRecord{rec}, nil
	}
	var records []model.RawRecord
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return records, nil
}

func setDate(params url.Values, prefix string, t time.Time) {
	params.Set(prefix+"_Day", fmt.Sprintf("%02d", t.Day()))
	params.Set(prefix+"_Month", fmt.Sprintf("%02d", int(t.Month())))
	params.Set(prefix+"_Year", strconv.Itoa(t.Year()))
	params.Set(prefix+"_Hour", fmt.Sprintf("%02d", t.Hour()))
	params.Set(prefix+"_Min", fmt.Sprintf("%02d", t.Minute()))
}

func isMinimumPeriodNotice(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(msg, "Man Süre") || strings.Contains(lower, "min")
}

func mobilePhone(phone string) string {
	if len(phone) < minPhoneLength {
		return defaultMobilePhone
	}
	return phone
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
