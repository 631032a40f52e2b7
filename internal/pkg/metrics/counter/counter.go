// Package counter keeps running totals of webhook outcomes in a Redis hash.
package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const outcomesKey = "sepay:counters:outcomes"

// Recorder increments per-outcome counters.
type Recorder struct {
	client *redis.Client
	key    string
}

func NewRecorder(client *redis.Client) *Recorder {
	return &Recorder{client: client, key: outcomesKey}
}

// Add increments the counter for outcome by one.
func (r *Recorder) Add(ctx context.Context, outcome string) error {
	return r.client.HIncrBy(ctx, r.key, outcome, 1).Err()
}

// Snapshot returns all counters. Unparsable fields are skipped.
func (r *Recorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
