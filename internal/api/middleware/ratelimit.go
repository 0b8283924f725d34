package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// limiterPrefix namespaces limiter keys in a shared store.
const limiterPrefix = "aegis_limiter"

// NewLimiterStore returns a Redis-backed limiter store when redisURL is set,
// so limits hold across replicas, and an in-memory store otherwise.
func NewLimiterStore(ctx context.Context, redisURL string) (limiter.Store, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   limiterPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, nil
}

// NewRateLimiter creates a Gin middleware allowing requests per period for
// each client IP. name keeps limiters sharing a store apart. A nil store
// means an in-memory one. onLimit, if set, runs for every rejected request.
func NewRateLimiter(name string, requests int64, period time.Duration, store limiter.Store, onLimit func(c *gin.Context)) (gin.HandlerFunc, error) {
	if requests <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d", requests)
	}
	if period <= 0 {
		return nil, fmt.Errorf("invalid rate limit period %s", period)
	}
	if store == nil {
		store = memory.NewStore()
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  requests,
	}
	instance := limiter.New(store, rate)

	middleware := mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return name + ":" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			if onLimit != nil {
				onLimit(c)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		}),
	)
	return middleware, nil
}
