package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-ticket-stats/internal/logger"
)

// InitializeTokenCache connects to Redis and checks that the token key is writable.
func InitializeTokenCache(ctx context.Context, redisAddr string, log *logger.Logger) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Error("AUTH", fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
		redisClient.Close()
		return nil, err
	}

	log.Info("AUTH", fmt.Sprintf("Connected to Redis at %s for token caching", redisAddr))

	testKey := M2MTokenKey + ":test"
	if err := redisClient.Set(ctx, testKey, "test", 5*time.Second).Err(); err != nil {
		log.Error("AUTH", fmt.Sprintf("Failed to write test value to Redis: %v", err))
		redisClient.Close()
		return nil, err
	}

	log.Info("AUTH", "Redis token cache is ready for use")
	return redisClient, nil
}
