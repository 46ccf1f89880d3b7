// Package validator checks that a vehicle reading is within the operating
// ranges the anomaly classifier was trained on.
package validator

import (
	"math"
	"strings"

	"vehicle-advisor/internal/models"
)

// Operating ranges for a running vehicle
const (
	MinTemperature = 50.0  // Celsius
	MaxTemperature = 120.0 // Celsius
	MinSpeed       = 0.0   // kph
	MaxSpeed       = 160.0 // kph
)

const (
	MsgNonNumeric      = "Invalid input. Please enter numeric values for temperature and speed."
	MsgTemperatureLow  = "Engine temperature must be at least 50°C for a running vehicle."
	MsgTemperatureHigh = "Engine temperature must not exceed 120°C."
	MsgSpeedNegative   = "Speed cannot be negative."
	MsgSpeedTooHigh    = "Speed must not exceed 160 kph."
)

// Validate applies every range rule to the reading and joins the messages of
// all violated rules, in rule order, with a single space.
func Validate(reading models.Reading) models.ValidationResult {
	var errs []string

	if !isNumeric(reading.Temperature) || !isNumeric(reading.Speed) {
		errs = append(errs, MsgNonNumeric)
	}
	if reading.Temperature < MinTemperature {
		errs = append(errs, MsgTemperatureLow)
	}
	if reading.Temperature > MaxTemperature {
		errs = append(errs, MsgTemperatureHigh)
	}
	if reading.Speed < MinSpeed {
		errs = append(errs, MsgSpeedNegative)
	}
	if reading.Speed > MaxSpeed {
		errs = append(errs, MsgSpeedTooHigh)
	}

	if len(errs) > 0 {
		return models.ValidationResult{Valid: false, Message: strings.Join(errs, " ")}
	}
	return models.ValidationResult{Valid: true}
}

func isNumeric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
