package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyString(t *testing.T) {
	k := Key{DeviceKey: "infusion-pump", StepNumber: 3, LanguageCode: "de", StyleKey: "clinical"}
	assert.Equal(t, "infusion-pump/3/de/clinical", k.String())
}

func TestNormalizeKey(t *testing.T) {
	k := NormalizeKey(Key{
		DeviceKey:    "  Infusion-Pump ",
		StepNumber:   3,
		LanguageCode: "DE",
		StyleKey:     " Clinical",
	})
	assert.Equal(t, Key{DeviceKey: "infusion-pump", StepNumber: 3, LanguageCode: "de", StyleKey: "clinical"}, k)
}

func TestValidateKey(t *testing.T) {
	device := &Device{Key: "infusion-pump", Name: "Infusion Pump", TotalSteps: 8}

	tests := []struct {
		name      string
		key       Key
		device    *Device
		wantField string
	}{
		{
			name:   "valid",
			key:    Key{DeviceKey: "infusion-pump", StepNumber: 1, LanguageCode: "en", StyleKey: "plain"},
			device: device,
		},
		{
			name:   "last step valid",
			key:    Key{DeviceKey: "infusion-pump", StepNumber: 8, LanguageCode: "en", StyleKey: "plain"},
			device: device,
		},
		{
			name:      "empty device key",
			key:       Key{StepNumber: 1, LanguageCode: "en", StyleKey: "plain"},
			wantField: "device_key",
		},
		{
			name:      "malformed device key",
			key:       Key{DeviceKey: "Infusion Pump!", StepNumber: 1, LanguageCode: "en", StyleKey: "plain"},
			wantField: "device_key",
		},
		{
			name:      "unknown device",
			key:       Key{DeviceKey: "toaster", StepNumber: 1, LanguageCode: "en", StyleKey: "plain"},
			device:    nil,
			wantField: "device_key",
		},
		{
			name:      "step zero",
			key:       Key{DeviceKey: "infusion-pump", StepNumber: 0, LanguageCode: "en", StyleKey: "plain"},
			device:    device,
			wantField: "step_number",
		},
		{
			name:      "step past total",
			key:       Key{DeviceKey: "infusion-pump", StepNumber: 9, LanguageCode: "en", StyleKey: "plain"},
			device:    device,
			wantField: "step_number",
		},
		{
			name:      "empty language",
			key:       Key{DeviceKey: "infusion-pump", StepNumber: 1, StyleKey: "plain"},
			device:    device,
			wantField: "language_code",
		},
		{
			name:      "empty style",
			key:       Key{DeviceKey: "infusion-pump", StepNumber: 1, LanguageCode: "en"},
			device:    device,
			wantField: "style_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key, tt.device)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("step_number", "step %d out of range [1, %d] for device %s", 12, 8, "infusion-pump")
	assert.Equal(t, "invalid step_number: step 12 out of range [1, 8] for device infusion-pump", err.Error())
}
