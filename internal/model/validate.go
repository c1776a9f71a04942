package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError marks a request as malformed. Handlers surface it as a 400
// and it is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NormalizeKey lowercases and trims the string identifiers of a key.
func NormalizeKey(k Key) Key {
	k.DeviceKey = strings.ToLower(strings.TrimSpace(k.DeviceKey))
	k.LanguageCode = strings.ToLower(strings.TrimSpace(k.LanguageCode))
	k.StyleKey = strings.ToLower(strings.TrimSpace(k.StyleKey))
	return k
}

// ValidateKey checks a key's shape against the device catalog row. The device
// may be nil when the device key itself is unknown.
func ValidateKey(k Key, device *Device) error {
	if k.DeviceKey == "" || !keyPattern.MatchString(k.DeviceKey) {
		return NewValidationError("device_key", "%q is not a valid device key", k.DeviceKey)
	}
	if device == nil {
		return NewValidationError("device_key", "unknown device %q", k.DeviceKey)
	}
	if k.StepNumber < 1 || k.StepNumber > device.TotalSteps {
		return NewValidationError("step_number", "step %d out of range [1, %d] for device %s",
			k.StepNumber, device.TotalSteps, device.Key)
	}
	if k.LanguageCode == "" || !keyPattern.MatchString(k.LanguageCode) {
		return NewValidationError("language_code", "%q is not a valid language code", k.LanguageCode)
	}
	if k.StyleKey == "" || !keyPattern.MatchString(k.StyleKey) {
		return NewValidationError("style_key", "%q is not a valid style key", k.StyleKey)
	}
	return nil
}
