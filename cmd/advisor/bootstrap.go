package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vehicle-advisor/internal/advisor"
	"vehicle-advisor/internal/llm"
	"vehicle-advisor/internal/ml"
	"vehicle-advisor/internal/models"
	"vehicle-advisor/internal/services"
	"vehicle-advisor/pkg/config"
)

// buildService performs startup: credential check, artifact load and
// text-generation wiring. Any error is fatal. The returned cleanup func is never nil.
func buildService(ctx context.Context, cfg *config.Config) (*services.PredictionService, func(), error) {
	cleanup := func() {}

	if err := cfg.Validate(); err != nil {
		return nil, cleanup, err
	}

	store, err := ml.NewArtifactStore(cfg.MinioConfig())
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	predictor, err := ml.LoadPredictor(ctx, store, cfg.ModelPath, cfg.LabelEncoderPath)
	if err != nil {
		return nil, cleanup, err
	}

	generator, err := llm.NewFromConfig(cfg.LLMConfig())
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to initialize text generation: %w", err)
	}

	if cfg.QuotaEnabled() {
		client := newRedisClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		cleanup = func() {
			if err := client.Close(); err != nil {
				log.Printf("Error closing Redis client: %v", err)
			}
		}
		generator = llm.NewQuotaGenerator(generator, llm.QuotaConfig{
			RedisClient: client,
			Limit:       cfg.GenerationQuotaLimit,
			Window:      cfg.GenerationQuotaWindow,
		})
		log.Printf("Generation quota: %d requests per %v (redis %s)", cfg.GenerationQuotaLimit, cfg.GenerationQuotaWindow, cfg.RedisAddr)
	}

	recommender := advisor.NewRecommender(generator, advisor.RecommenderConfig{
		Timeout: cfg.GenerationTimeout,
	})

	log.Printf("Text generation: provider=%s model=%s timeout=%v",
		cfg.LLMProvider, modelName(cfg), cfg.GenerationTimeout)

	return services.NewPredictionService(predictor, recommender), cleanup, nil
}

// newRedisClient connects to Redis. An unreachable server is only logged
// since the quota guard lets generation through when Redis is down.
func newRedisClient(ctx context.Context, addr string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis at %s is unreachable, quota checks will be skipped: %v", addr, err)
	}
	return client
}

func modelName(cfg *config.Config) string {
	if cfg.LLMModel != "" {
		return cfg.LLMModel
	}
	return llm.DefaultModelFor(cfg.LLMProvider)
}

// writeFatal reports a startup failure in the output schema
func writeFatal(w io.Writer, err error) {
	writeResult(w, models.PredictionResult{Anomaly: models.LabelError, Recommendation: err.Error()})
}

func writeResult(w io.Writer, result models.PredictionResult) {
	enc := json.NewEncoder(w)
	if err := enc.Encode(result); err != nil {
		log.Printf("Error writing result: %v", err)
	}
}
