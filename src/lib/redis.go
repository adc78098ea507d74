package lib

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient replaces the shared redis instance with a custom client.
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// CacheInvalidate drops keys, tolerating a missing client. Cached seat maps
// are a read optimization only; losing them is never an error.
func CacheInvalidate(ctx context.Context, keys ...string) {
	rd := GetRedisClient()
	if rd == nil || len(keys) == 0 {
		return
	}
	if err := rd.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[redis] Error invalidating keys %v: %s\n", keys, err.Error())
	}
}
