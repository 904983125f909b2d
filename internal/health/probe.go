package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Probe implements Checker against the live connection pools.
type Probe struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// PingDB checks the Postgres pool.
func (p Probe) PingDB(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Pool.Ping(ctx)
}

// PingRedis checks the Redis connection.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
