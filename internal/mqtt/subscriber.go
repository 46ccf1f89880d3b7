// Package mqtt carries readings in and predictions out over an MQTT broker.
// A reading published to vehicle/<device_id>/reading is answered on
// vehicle/<device_id>/prediction.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vehicle-advisor/internal/models"
)

// SubscribeClient is the part of mqtt.Client the subscriber needs
type SubscribeClient interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Subscriber decodes reading messages and hands them to ReadingChan
type Subscriber struct {
	client SubscribeClient

	// Output channel (written by subscriber, read by the reading service)
	ReadingChan chan *models.ReadingRequest

	readingTopic string
	sendTimeout  time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	ReadingTopic string        // e.g., "vehicle/+/reading"
	SendTimeout  time.Duration // how long to wait for a free slot before dropping
}

// NewSubscriber creates a new MQTT subscriber writing to readingChan
func NewSubscriber(client SubscribeClient, config SubscriberConfig, readingChan chan *models.ReadingRequest) *Subscriber {
	if config.SendTimeout <= 0 {
		config.SendTimeout = time.Second
	}
	return &Subscriber{
		client:       client,
		ReadingChan:  readingChan,
		readingTopic: config.ReadingTopic,
		sendTimeout:  config.SendTimeout,
	}
}

// Subscribe registers the reading handler on the broker
func (s *Subscriber) Subscribe() error {
	if s.readingTopic == "" {
		return fmt.Errorf("failed to subscribe: no reading topic configured")
	}

	token := s.client.Subscribe(s.readingTopic, 1, s.handleReading)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to reading topic: %w", token.Error())
	}

	log.Printf("Subscribed to reading topic: %s", s.readingTopic)
	return nil
}

// handleReading parses {"temp": .., "speed": ..} from vehicle/{device_id}/reading
func (s *Subscriber) handleReading(client mqtt.Client, msg mqtt.Message) {
	deviceID := extractDeviceID(msg.Topic())
	if deviceID == "" {
		log.Printf("Could not extract device ID from topic: %s", msg.Topic())
		return
	}

	var payload models.ReadingPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling reading from %s: %v", deviceID, err)
		return
	}

	req := &models.ReadingRequest{
		DeviceID:  deviceID,
		Timestamp: time.Now(),
		Reading:   payload.Reading(),
	}

	log.Printf("Received reading from %s: temp=%v speed=%v", deviceID, req.Reading.Temperature, req.Reading.Speed)

	select {
	case s.ReadingChan <- req:
	case <-time.After(s.sendTimeout):
		log.Printf("Warning: Reading channel full, dropping message from %s", deviceID)
	}
}

// extractDeviceID returns the second topic level
// Example: "vehicle/truck-7/reading" -> "truck-7"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
