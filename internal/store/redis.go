package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "analytics:"

// Redis wraps the redis client and the analytics report cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetReport returns the cached analytics report for a student, or
// (nil, nil) on a miss.
func (r *Redis) GetReport(ctx context.Context, personID string) ([]byte, error) {
	data, err := r.Client.Get(ctx, reportKeyPrefix+personID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// SetReport caches a student's analytics report with a TTL.
func (r *Redis) SetReport(ctx context.Context, personID string, report []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, reportKeyPrefix+personID, report, ttl).Err()
}

// PurgeReports drops every cached report; used after a day reset since
// any student's numbers may have changed.
func (r *Redis) PurgeReports(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.Client.Scan(ctx, cursor, reportKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := r.Client.Del(ctx, keys...).Result()
			removed += int(n)
			if err != nil {
				return removed, err
			}
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
