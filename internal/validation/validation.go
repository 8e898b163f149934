package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

// ValidateRequired checks that a field is not blank
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return common.Invalid(fieldName, "is required")
	}
	return nil
}

// ValidateMinLength checks the minimum length of a string in runes
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(value) < minLength {
		return common.Invalid(fieldName, "must be at least %d characters long", minLength)
	}
	return nil
}

// ValidateMaxLength checks the maximum length of a string in runes
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return common.Invalid(fieldName, "must be at most %d characters long", maxLength)
	}
	return nil
}

// ParseUUID parses value or reports fieldName as invalid
func ParseUUID(value, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, common.Invalid(fieldName, "must be a valid UUID")
	}
	return id, nil
}

// ParseOptionalUUID returns nil for a blank value
func ParseOptionalUUID(value *string, fieldName string) (*uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	id, err := ParseUUID(*value, fieldName)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ValidateEmail checks the address parses as an RFC 5322 mailbox
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return common.Invalid("email", "must have a valid format")
	}
	return nil
}

// ValidateWindow checks that end is strictly after start
func ValidateWindow(start, end time.Time, endField string) error {
	if start.IsZero() || end.IsZero() {
		return common.Invalid(endField, "start and end are required")
	}
	if !end.After(start) {
		return common.Invalid(endField, "must be after the start")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value, fieldName string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, common.Invalid(fieldName, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// TextValidation bundles the length rules shared by titled entities
type TextValidation struct {
	MinName        int
	MaxName        int
	MaxDescription int
}

// DefaultText is used for conferences, sessions, criteria and projects
var DefaultText = TextValidation{MinName: 2, MaxName: 200, MaxDescription: 2000}

// ValidateName checks a name or title
func (v TextValidation) ValidateName(name, fieldName string) error {
	if err := ValidateRequired(name, fieldName); err != nil {
		return err
	}
	if err := ValidateMinLength(strings.TrimSpace(name), v.MinName, fieldName); err != nil {
		return err
	}
	return ValidateMaxLength(name, v.MaxName, fieldName)
}

// ValidateDescription checks an optional description
func (v TextValidation) ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	return ValidateMaxLength(*description, v.MaxDescription, "description")
}
