package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vehicle-advisor/internal/models"
)

// Predictor runs the full pipeline for one reading
type Predictor interface {
	Predict(ctx context.Context, reading models.Reading) models.PredictionResult
}

// PredictionHandler serves the prediction routes
type PredictionHandler struct {
	Service Predictor
}

// NewPredictionHandler creates a handler backed by p
func NewPredictionHandler(p Predictor) *PredictionHandler {
	return &PredictionHandler{Service: p}
}

// PredictAnomaly accepts {"temp": .., "speed": ..} and answers with a PredictionResult.
// Out-of-range or non-numeric values are reported in the result, not as HTTP errors.
func (h *PredictionHandler) PredictAnomaly(c *gin.Context) {
	var payload models.ReadingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object with temp and speed"})
		return
	}

	reading := payload.Reading()
	result := h.Service.Predict(c.Request.Context(), reading)

	log.Printf("API: request %s temp=%v speed=%v -> %s", c.GetString(requestIDKey), reading.Temperature, reading.Speed, result.Anomaly)
	c.JSON(http.StatusOK, result)
}

// Health reports that the server is up
func (h *PredictionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
