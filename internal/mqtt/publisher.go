package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vehicle-advisor/internal/models"
)

// PublishClient is the part of mqtt.Client the publisher needs
type PublishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends predictions from PredictionChan to the broker
type Publisher struct {
	client PublishClient

	// Input channel (read by publisher, written by the reading service)
	PredictionChan chan *models.PredictionMessage

	predictionTopic string // e.g., "vehicle/{device_id}/prediction"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	PredictionTopic string
}

// NewPublisher creates a new MQTT publisher reading from predictionChan
func NewPublisher(client PublishClient, config PublisherConfig, predictionChan chan *models.PredictionMessage) *Publisher {
	return &Publisher{
		client:          client,
		PredictionChan:  predictionChan,
		predictionTopic: config.PredictionTopic,
	}
}

// Start publishes predictions until ctx is cancelled or the channel is closed
func (p *Publisher) Start(ctx context.Context) {
	log.Println("MQTT Publisher: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("MQTT Publisher: Context cancelled, shutting down...")
			return

		case msg, ok := <-p.PredictionChan:
			if !ok {
				log.Println("MQTT Publisher: Prediction channel closed, shutting down...")
				return
			}

			if err := p.publishPrediction(msg); err != nil {
				log.Printf("Error publishing prediction: %v", err)
			}
		}
	}
}

func (p *Publisher) publishPrediction(msg *models.PredictionMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	topic := formatTopic(p.predictionTopic, msg.DeviceID)

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish prediction: %w", token.Error())
	}

	log.Printf("Published prediction %q for device %s to topic: %s", msg.Anomaly, msg.DeviceID, topic)
	return nil
}

// formatTopic replaces the {device_id} placeholder
func formatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
