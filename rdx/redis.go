package rdx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses a redis URL and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	conn := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return conn, nil
}
