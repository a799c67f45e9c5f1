package leaderboard

import (
	"context"
	"fmt"

	"github.com/campfire-gg/arcade/pkg/config"
	"github.com/campfire-gg/arcade/pkg/game/variant"

	"github.com/go-redis/redis/v9"
)

const KEY_SCORES = "arcade-scores-%s"

// RedisStore keeps one sorted set per variant so the best scores
// survive process restarts and are shared between instances.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedis(settings config.RedisSettings) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     settings.Address,
			Password: settings.Password,
			DB:       settings.DB,
		}),
	}
}

func scoreKey(v variant.ID) string {
	return fmt.Sprintf(KEY_SCORES, v.String())
}

// SubmitScore relies on ZADD GT for the keeps-max rule: new names are
// added, existing names only ever move up.
func (r *RedisStore) SubmitScore(ctx context.Context, v variant.ID, name string, score int) error {
	return r.client.ZAddGT(ctx, scoreKey(v), redis.Z{
		Score:  float64(score),
		Member: name,
	}).Err()
}

func (r *RedisStore) TopScores(ctx context.Context, v variant.ID, limit int) ([]Entry, error) {
	results, err := r.client.ZRevRangeWithScores(
		ctx,
		scoreKey(v),
		0,
		int64(limit-1),
	).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Name:  name,
			Score: int(result.Score),
		})
	}
	return entries, nil
}
