// Package advisor turns an anomaly label and its reading into a short driver
// recommendation obtained from a text-generation service.
package advisor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vehicle-advisor/internal/models"
	"vehicle-advisor/internal/validator"
)

// PromptRule pairs a predicate with the prompt it produces.
// Rules are evaluated in order and the first match wins.
type PromptRule struct {
	Name    string
	Matches func(label string, reading models.Reading) bool
	Build   func(label string, reading models.Reading) string
}

const askSuffix = "Provide a concise recommendation (1-2 sentences) for the driver to address "

var safeRange = fmt.Sprintf("(%s–%s°C)", formatNumber(validator.MinTemperature, false), formatNumber(validator.MaxTemperature, false))

// DefaultRules is the prompt policy: speed anomalies first, then temperature
// outside the safe range regardless of label, then a generic prompt.
var DefaultRules = []PromptRule{
	{
		Name: "speed_anomaly",
		Matches: func(label string, _ models.Reading) bool {
			return label == models.LabelSpeedAnomaly
		},
		Build: func(_ string, r models.Reading) string {
			return fmt.Sprintf("The vehicle has a speed of %s kph, classified as a '%s', "+
				"with an engine temperature of %s°C, which is within the safe range %s. "+
				askSuffix+"the high speed safely.",
				formatNumber(r.Speed, true), models.LabelSpeedAnomaly, formatNumber(r.Temperature, true), safeRange)
		},
	},
	{
		Name: "low_temperature",
		Matches: func(_ string, r models.Reading) bool {
			return r.Temperature < validator.MinTemperature
		},
		Build: func(label string, r models.Reading) string {
			return fmt.Sprintf("The vehicle has an engine temperature of %s°C, which is below the safe range %s, "+
				"and a speed of %s kph, classified as '%s'. "+
				askSuffix+"the low engine temperature safely.",
				formatNumber(r.Temperature, true), safeRange, formatNumber(r.Speed, true), label)
		},
	},
	{
		Name: "high_temperature",
		Matches: func(_ string, r models.Reading) bool {
			return r.Temperature > validator.MaxTemperature
		},
		Build: func(label string, r models.Reading) string {
			return fmt.Sprintf("The vehicle has an engine temperature of %s°C, which is above the safe range %s, "+
				"and a speed of %s kph, classified as '%s'. "+
				askSuffix+"the high engine temperature safely.",
				formatNumber(r.Temperature, true), safeRange, formatNumber(r.Speed, true), label)
		},
	},
	genericRule,
}

var genericRule = PromptRule{
	Name: "generic",
	Matches: func(string, models.Reading) bool {
		return true
	},
	Build: func(label string, r models.Reading) string {
		return fmt.Sprintf("The vehicle has an engine temperature of %s°C and speed of %s kph, classified as '%s'. "+
			askSuffix+"this situation safely.",
			formatNumber(r.Temperature, true), formatNumber(r.Speed, true), label)
	},
}

// BuildPrompt returns the name of the first matching rule and its prompt.
// The generic prompt is used when no rule matches.
func BuildPrompt(rules []PromptRule, label string, reading models.Reading) (string, string) {
	for _, rule := range rules {
		if rule.Matches(label, reading) {
			return rule.Name, rule.Build(label, reading)
		}
	}
	return genericRule.Name, genericRule.Build(label, reading)
}

// formatNumber renders readings the way they are shown to the driver:
// 90 -> "90.0", 90.5 -> "90.5", 1e16 -> "1e+16", 0.00001 -> "1e-05".
// With keepDecimal false whole numbers have no decimals.
func formatNumber(v float64, keepDecimal bool) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	// exponent form below 1e-4 and from 1e16 up
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	if v != 0 {
		exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return sci
		}
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if keepDecimal && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
