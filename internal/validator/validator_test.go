package validator

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"vehicle-advisor/internal/models"
)

func TestValidateAcceptsOperatingRange(t *testing.T) {
	for temp := MinTemperature; temp <= MaxTemperature; temp += 5 {
		for speed := MinSpeed; speed <= MaxSpeed; speed += 10 {
			result := Validate(models.Reading{Temperature: temp, Speed: speed})
			assert.True(t, result.Valid, "temp=%v speed=%v", temp, speed)
			assert.Empty(t, result.Message, "temp=%v speed=%v", temp, speed)
		}
	}
}

func TestValidateSingleViolation(t *testing.T) {
	tests := []struct {
		name    string
		reading models.Reading
		want    string
	}{
		{"cold engine", models.Reading{Temperature: 30, Speed: 40}, MsgTemperatureLow},
		{"just below minimum", models.Reading{Temperature: 49.99, Speed: 40}, MsgTemperatureLow},
		{"overheating", models.Reading{Temperature: 121, Speed: 40}, MsgTemperatureHigh},
		{"reversing", models.Reading{Temperature: 90, Speed: -1}, MsgSpeedNegative},
		{"too fast", models.Reading{Temperature: 100, Speed: 200}, MsgSpeedTooHigh},
		{"nan speed", models.Reading{Temperature: 90, Speed: math.NaN()}, MsgNonNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.reading)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.want, result.Message)
		})
	}
}

func TestValidateConcatenatesInRuleOrder(t *testing.T) {
	result := Validate(models.Reading{Temperature: 130, Speed: -5})
	assert.False(t, result.Valid)
	assert.Equal(t, MsgTemperatureHigh+" "+MsgSpeedNegative, result.Message)

	result = Validate(models.Reading{Temperature: 20, Speed: 170})
	assert.Equal(t, MsgTemperatureLow+" "+MsgSpeedTooHigh, result.Message)

	// +Inf is not numeric but still compares above every bound
	result = Validate(models.Reading{Temperature: math.Inf(1), Speed: 60})
	assert.Equal(t, MsgNonNumeric+" "+MsgTemperatureHigh, result.Message)
	assert.True(t, strings.HasPrefix(result.Message, MsgNonNumeric))
}
