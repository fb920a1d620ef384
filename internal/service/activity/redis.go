package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/redis.v5"
)

const keyPrefix = "activity:"

// RedisRecorder stores each user's history in a capped redis list.
type RedisRecorder struct {
	client *redis.Client
	limit  int
	log    *zap.Logger
}

// NewRedisRecorder connects to the redis server at addr and verifies it answers.
func NewRedisRecorder(addr string, limit int, logger *zap.Logger) (*RedisRecorder, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return &RedisRecorder{client: client, limit: limit, log: logger.Named("activity")}, nil
}

// Record pushes e onto the user's list and trims it to the limit in one transaction.
func (r *RedisRecorder) Record(_ context.Context, username string, e Entry) error {
	if username == "" {
		return ErrUsernameRequired
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode activity entry: %w", err)
	}

	key := keyPrefix + username
	_, err = r.client.TxPipelined(func(pipe *redis.Pipeline) error {
		pipe.LPush(key, payload)
		pipe.LTrim(key, 0, int64(r.limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("record activity for %s: %w", username, err)
	}
	return nil
}

// Recent reads the user's list. Entries that fail to decode are skipped and logged.
func (r *RedisRecorder) Recent(_ context.Context, username string) ([]Entry, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	raw, err := r.client.LRange(keyPrefix+username, 0, int64(r.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity for %s: %w", username, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			r.log.Warn("skipping malformed activity entry", zap.String("username", username), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close releases the redis connection pool.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
