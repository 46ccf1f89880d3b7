package models

import "time"

// Anomaly labels with special meaning to the pipeline. Every other label comes
// from the classifier's label encoder.
const (
	// LabelInvalid is passed to the recommendation generator when a reading fails
	// validation. The classifier never produces it.
	LabelInvalid = "invalid"

	// LabelError marks a classification or orchestration failure
	LabelError = "Error"

	LabelNormal       = "normal"
	LabelSpeedAnomaly = "speed_anomaly"
)

// PredictionResult is the full output contract of the pipeline.
// Both fields are always populated.
type PredictionResult struct {
	Anomaly        string `json:"anomaly"`
	Recommendation string `json:"recommendation"`
}

// PredictionMessage is published over MQTT in reply to a reading
type PredictionMessage struct {
	DeviceID       string    `json:"device_id"`
	Timestamp      time.Time `json:"timestamp"`
	Anomaly        string    `json:"anomaly"`
	Recommendation string    `json:"recommendation"`
}
