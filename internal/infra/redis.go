package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis creates and validates a go-redis client connection. Redis backs
// the stock summary cache and the email dispatch queue.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("addr", opts.Addr).Msg("redis connected")

	return rdb, nil
}
