package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vehicle-advisor/internal/llm"
	"vehicle-advisor/internal/ml"
)

// ErrMissingCredential is returned by Validate when the selected text-generation
// provider needs an API key and none is configured
var ErrMissingCredential = errors.New("missing text generation credential")

type Config struct {
	// Text generation
	GoogleAPIKey      string
	LLMProvider       string
	LLMModel          string
	LLMAPIKey         string
	LLMBaseURL        string
	GenerationTimeout time.Duration

	// Classifier artifacts
	ModelPath        string
	LabelEncoderPath string

	// Object storage for s3:// artifact locations
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	// Generation quota
	RedisAddr             string
	RedisDB               int
	GenerationQuotaLimit  int
	GenerationQuotaWindow time.Duration

	// HTTP surface
	HTTPAddr string

	// MQTT surface
	MQTTBroker          string
	MQTTClientID        string
	MQTTUsername        string
	MQTTPassword        string
	MQTTTopicReading    string
	MQTTTopicPrediction string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		GoogleAPIKey:      getEnv("GOOGLE_AI_API_KEY", ""),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", llm.ProviderGemini)),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),

		ModelPath:        getEnv("MODEL_PATH", "./engine_health_rf_model.json"),
		LabelEncoderPath: getEnv("LABEL_ENCODER_PATH", "./engine_health_label_encoder.json"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:    getEnvBool("S3_USE_SSL", false),

		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		GenerationQuotaLimit:  getEnvInt("GENERATION_QUOTA_LIMIT", 0),
		GenerationQuotaWindow: getEnvDuration("GENERATION_QUOTA_WINDOW", time.Minute),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MQTTBroker:          getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:        getEnv("MQTT_CLIENT_ID", "vehicle-advisor"),
		MQTTUsername:        getEnv("MQTT_USERNAME", ""),
		MQTTPassword:        getEnv("MQTT_PASSWORD", ""),
		MQTTTopicReading:    getEnv("MQTT_TOPIC_READING", "vehicle/+/reading"),
		MQTTTopicPrediction: getEnv("MQTT_TOPIC_PREDICTION", "vehicle/{device_id}/prediction"),
	}
}

// APIKey returns the credential for the selected provider. Gemini falls back
// to LLM_API_KEY when GOOGLE_AI_API_KEY is unset.
func (c *Config) APIKey() string {
	if c.LLMProvider == llm.ProviderGemini && c.GoogleAPIKey != "" {
		return c.GoogleAPIKey
	}
	return c.LLMAPIKey
}

// Validate checks the settings that must be present before any prediction
func (c *Config) Validate() error {
	if !llm.RequiresAPIKey(c.LLMProvider) {
		return nil
	}
	if c.APIKey() == "" {
		if c.LLMProvider == llm.ProviderGemini {
			return fmt.Errorf("%w: GOOGLE_AI_API_KEY is not set", ErrMissingCredential)
		}
		return fmt.Errorf("%w: LLM_API_KEY is not set for provider %s", ErrMissingCredential, c.LLMProvider)
	}
	return nil
}

// LLMConfig returns the text-generation settings
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider: c.LLMProvider,
		Model:    c.LLMModel,
		APIKey:   c.APIKey(),
		BaseURL:  c.LLMBaseURL,
		Timeout:  c.GenerationTimeout,
	}
}

// MinioConfig returns the object storage settings for s3:// artifacts
func (c *Config) MinioConfig() ml.MinioConfig {
	return ml.MinioConfig{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		UseSSL:    c.S3UseSSL,
	}
}

// QuotaEnabled reports whether generation requests should be counted in Redis
func (c *Config) QuotaEnabled() bool {
	return c.RedisAddr != "" && c.GenerationQuotaLimit > 0
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

// getEnvDuration accepts Go durations ("45s") or a plain number of seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return time.Duration(seconds * float64(time.Second))
}
