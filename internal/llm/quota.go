package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQuotaExhausted is returned when the generation quota for the current window is used up
var ErrQuotaExhausted = errors.New("text generation quota exhausted")

// QuotaConfig configures a fixed-window generation quota
type QuotaConfig struct {
	RedisClient *redis.Client
	Limit       int
	Window      time.Duration
	Key         string
}

// QuotaGenerator counts generation requests in Redis and refuses to call the
// wrapped generator once Limit is reached within Window. Redis errors do not
// block generation.
type QuotaGenerator struct {
	next   TextGenerator
	client *redis.Client
	limit  int
	window time.Duration
	key    string
}

// NewQuotaGenerator wraps next with the configured quota
func NewQuotaGenerator(next TextGenerator, config QuotaConfig) *QuotaGenerator {
	if config.Key == "" {
		config.Key = "quota:generation"
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &QuotaGenerator{
		next:   next,
		client: config.RedisClient,
		limit:  config.Limit,
		window: config.Window,
		key:    config.Key,
	}
}

// Generate consumes one unit of quota and forwards the prompt
func (q *QuotaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	count, err := q.client.Incr(ctx, q.key).Result()
	if err != nil {
		log.Printf("QuotaGenerator: Redis unavailable, skipping quota check: %v", err)
		return q.next.Generate(ctx, prompt)
	}

	// the counter must always carry an expiry
	ttl, err := q.client.TTL(ctx, q.key).Result()
	if err != nil {
		log.Printf("QuotaGenerator: failed to read quota window: %v", err)
	} else if ttl < 0 {
		if err := q.client.Expire(ctx, q.key, q.window).Err(); err != nil {
			log.Printf("QuotaGenerator: failed to set quota window: %v", err)
		} else {
			ttl = q.window
		}
	}

	if count > int64(q.limit) {
		if ttl < 0 {
			ttl = 0
		}
		return "", fmt.Errorf("%w: %d requests per %v, resets in %v", ErrQuotaExhausted, q.limit, q.window, ttl.Round(time.Second))
	}

	return q.next.Generate(ctx, prompt)
}
