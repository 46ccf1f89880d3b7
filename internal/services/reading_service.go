package services

import (
	"context"
	"log"
	"sync"
	"time"

	"vehicle-advisor/internal/models"
)

// Predictor runs the full pipeline for one reading
type Predictor interface {
	Predict(ctx context.Context, reading models.Reading) models.PredictionResult
}

// ReadingService answers device readings with predictions. Every reading is
// handled on its own; nothing is aggregated across readings.
type ReadingService struct {
	predictor Predictor
	workers   int

	// Input channel from the MQTT subscriber
	ReadingChan chan *models.ReadingRequest

	// Output channel to the MQTT publisher, closed when Start returns
	PredictionChan chan *models.PredictionMessage
}

// ReadingServiceConfig holds configuration for reading service
type ReadingServiceConfig struct {
	Workers               int // concurrent predictions
	ReadingChannelSize    int
	PredictionChannelSize int
}

// DefaultReadingServiceConfig returns default configuration
func DefaultReadingServiceConfig() ReadingServiceConfig {
	return ReadingServiceConfig{
		Workers:               4,
		ReadingChannelSize:    100,
		PredictionChannelSize: 100,
	}
}

// NewReadingService creates a new reading service
func NewReadingService(predictor Predictor, config ReadingServiceConfig) *ReadingService {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &ReadingService{
		predictor:      predictor,
		workers:        config.Workers,
		ReadingChan:    make(chan *models.ReadingRequest, config.ReadingChannelSize),
		PredictionChan: make(chan *models.PredictionMessage, config.PredictionChannelSize),
	}
}

// Start processes readings until ctx is cancelled
func (s *ReadingService) Start(ctx context.Context) {
	log.Printf("ReadingService: Starting %d workers...", s.workers)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.processLoop(ctx)
		}()
	}

	wg.Wait()
	close(s.PredictionChan)
	log.Println("ReadingService: Shutdown complete")
}

func (s *ReadingService) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-s.ReadingChan:
			if !ok {
				return
			}
			msg := s.process(ctx, req)

			select {
			case s.PredictionChan <- msg:
			case <-ctx.Done():
				log.Printf("ReadingService: dropping prediction for %s during shutdown", req.DeviceID)
				return
			}
		}
	}
}

func (s *ReadingService) process(ctx context.Context, req *models.ReadingRequest) *models.PredictionMessage {
	start := time.Now()
	result := s.predictor.Predict(ctx, req.Reading)

	log.Printf("ReadingService: device %s -> %s in %v", req.DeviceID, result.Anomaly, time.Since(start).Round(time.Millisecond))

	return &models.PredictionMessage{
		DeviceID:       req.DeviceID,
		Timestamp:      time.Now(),
		Anomaly:        result.Anomaly,
		Recommendation: result.Recommendation,
	}
}
