package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	// Vendor ids look like "XML-1740821400000", "77" or "IST_01".
	vendorIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,63}$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details is the shape carried in AppError details.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("vendor_id", validateVendorID); err != nil {
		log.Fatal("Failed to register 'vendor_id' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateVendorID(fl validator.FieldLevel) bool {
	return vendorIDRegex.MatchString(fl.Field().String())
}

// Validate leaves missing vehicle identity to the caller, which reports it as
// its own error kind.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := req.Range().Validate(); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "dropoff_at",
				Message: "dropoff date must be at least one day after pickup date",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), strings.ToLower(err.Param()))
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "vendor_id":
			message = fmt.Sprintf("%s must be a vendor identifier (letters, digits, '.', '_' or '-')", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace()[strings.Index(err.Namespace(), ".")+1:],
			Message: message,
		})
	}

	return validationErrors
}
