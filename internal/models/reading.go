package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reading is one engine temperature / speed observation submitted for classification
type Reading struct {
	Temperature float64 `json:"engine_temperature"` // Celsius
	Speed       float64 `json:"speed"`              // kph
}

// ValidationResult reports whether a reading is within the accepted operating ranges.
// Message is empty iff Valid is true.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Measurement is a numeric value decoded leniently from transport payloads.
// JSON numbers and numeric strings are accepted; anything else decodes to NaN
// so the validator reports it instead of the transport rejecting the request.
type Measurement float64

// UnmarshalJSON implements json.Unmarshaler
func (m *Measurement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*m = Measurement(number)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			*m = Measurement(parsed)
			return nil
		}
	}

	*m = Measurement(math.NaN())
	return nil
}

// ReadingPayload is the request body shared by the HTTP and MQTT surfaces
type ReadingPayload struct {
	Temperature *Measurement `json:"temp"`
	Speed       *Measurement `json:"speed"`
}

// Reading converts the payload into a Reading. Missing fields become NaN.
func (p ReadingPayload) Reading() Reading {
	return Reading{
		Temperature: measurementOrNaN(p.Temperature),
		Speed:       measurementOrNaN(p.Speed),
	}
}

func measurementOrNaN(m *Measurement) float64 {
	if m == nil {
		return math.NaN()
	}
	return float64(*m)
}

// ReadingRequest is a reading received from a device over MQTT
type ReadingRequest struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Reading   Reading   `json:"reading"`
}
