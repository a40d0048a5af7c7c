package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisLatestPrefix  = "benchvm:latest:"
	redisHistoryPrefix = "benchvm:history:"
)

type RedisOptions struct {
	Address  string
	Username string
	Password string
	Database int

	// HistorySize is the number of datapoints kept per series. Zero keeps only the latest one.
	HistorySize int64

	// Expiration of the stored keys. Zero never expires.
	Expiration time.Duration
}

// RedisSink stores the latest datapoint of every series and a bounded history.
type RedisSink struct {
	client      *redis.Client
	historySize int64
	expiration  time.Duration
}

// NewRedisSink creates a new redis sink.
func NewRedisSink(opts RedisOptions) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.Database,
	})
	return &RedisSink{
		client:      client,
		historySize: opts.HistorySize,
		expiration:  opts.Expiration,
	}
}

func (r *RedisSink) Name() string {
	return "redis"
}

func (r *RedisSink) Publish(ctx context.Context, datapoints []Datapoint) error {
	pipe := r.client.TxPipeline()
	for _, dp := range datapoints {
		value, err := json.Marshal(dp)
		if err != nil {
			return fmt.Errorf("failed to encode datapoint %s: %w", dp.Key(), err)
		}
		pipe.Set(ctx, redisLatestPrefix+dp.Key(), value, r.expiration)
		if r.historySize > 0 {
			historyKey := redisHistoryPrefix + dp.Key()
			pipe.LPush(ctx, historyKey, value)
			pipe.LTrim(ctx, historyKey, 0, r.historySize-1)
			if r.expiration > 0 {
				pipe.Expire(ctx, historyKey, r.expiration)
			}
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store datapoints: %w", err)
	}
	return nil
}

func (r *RedisSink) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
