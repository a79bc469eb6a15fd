package validation

import (
	"fmt"
	"net/mail"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperengineering/shopkeep/internal/types"
)

const (
	MaxCodeLength     = 100
	MaxNameLength     = 100
	MaxEmailLength    = 254
	MaxPhoneLength    = 50
	MaxFileNameLength = 255
)

// storeCodePattern: starts with alphanumeric, then alphanumerics, hyphens or underscores.
var storeCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateStoreCode checks the store code format. Empty values are left to ValidateRequired.
func ValidateStoreCode(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if len(value) > MaxCodeLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxCodeLength),
		}
	}
	if !storeCodePattern.MatchString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be alphanumeric with hyphens or underscores",
		}
	}
	return nil
}

// ValidateFileName checks that value is a single plain file name. Empty values are left
// to ValidateRequired.
func ValidateFileName(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if value == "." || value == ".." || strings.ContainsAny(value, `/\`) || path.Base(value) != value {
		return &ValidationError{
			Field:   field,
			Message: "must be a plain file name without path elements",
		}
	}
	return nil
}

// ValidateEmail checks that value parses as a single bare address.
func ValidateEmail(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		}
	}
	return nil
}

// ValidateCurrency checks for an ISO 4217 alphabetic code.
func ValidateCurrency(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if !currencyPattern.MatchString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be a three-letter ISO 4217 code",
		}
	}
	return nil
}

// ValidateDate checks for a YYYY-MM-DD date.
func ValidateDate(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a date in YYYY-MM-DD format",
		}
	}
	return nil
}

// ValidatePersistableStore validates a create/update body.
// Language codes and the parent store are checked against storage by the service.
func ValidatePersistableStore(s types.PersistableStore) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("code", s.Code))
	c.Add(ValidateStoreCode("code", s.Code))

	c.Add(ValidateRequired("name", s.Name))
	c.Add(ValidateMaxLength("name", s.Name, MaxNameLength))
	c.Add(ValidateUTF8("name", s.Name))
	c.Add(ValidateNoNullBytes("name", s.Name))

	c.Add(ValidateRequired("email", s.Email))
	c.Add(ValidateMaxLength("email", s.Email, MaxEmailLength))
	c.Add(ValidateEmail("email", s.Email))

	c.Add(ValidateMaxLength("phone", s.Phone, MaxPhoneLength))
	c.Add(ValidateCurrency("currency", s.Currency))
	c.Add(ValidateDate("inBusinessSince", s.InBusinessSince))
	c.Add(ValidateStoreCode("retailerStore", s.RetailerStore))

	if s.RetailerStore != "" && s.RetailerStore == s.Code {
		c.Add(&ValidationError{
			Field:   "retailerStore",
			Message: "must not reference the store itself",
		})
	}

	return c.Errors()
}

// ValidatePersistableImage validates an uploaded image body.
// MIME whitelisting and size limits are enforced by the store service.
func ValidatePersistableImage(img types.PersistableImage) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("name", img.Name))
	c.Add(ValidateMaxLength("name", img.Name, MaxFileNameLength))
	c.Add(ValidateNoNullBytes("name", img.Name))
	c.Add(ValidateFileName("name", img.Name))

	c.Add(ValidateRequired("contentType", img.ContentType))

	if len(img.Bytes) == 0 {
		c.Add(&ValidationError{
			Field:   "bytes",
			Message: "is required",
		})
	}

	return c.Errors()
}
