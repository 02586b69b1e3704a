package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	engine "github.com/jason-s-yu/cambio/engine"
	"github.com/redis/go-redis/v9"
)

// Redis keeps one sorted set per mode, scored by the final score, plus a
// hash of the full entries keyed by round id.
//
//	cambio:leaderboard:<mode>         ZSET  round id -> score
//	cambio:leaderboard:<mode>:entries HASH  round id -> JSON entry
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps a client. The caller keeps ownership of opts.
func NewRedis(opts *redis.Options) *Redis {
	return &Redis{rdb: redis.NewClient(opts), prefix: "cambio:leaderboard:"}
}

// WithPrefix returns a copy using a different key prefix, so tests can run
// against a shared instance.
func (r *Redis) WithPrefix(prefix string) *Redis {
	return &Redis{rdb: r.rdb, prefix: prefix}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("leaderboard: redis ping: %w", err)
	}
	return nil
}

func (r *Redis) setKey(mode string) string     { return r.prefix + mode }
func (r *Redis) entriesKey(mode string) string { return r.prefix + mode + ":entries" }

// SubmitScore stores e. Resubmitting a round id keeps the first entry.
func (r *Redis) SubmitScore(ctx context.Context, e engine.ScoreEntry) error {
	if e.Mode == "" {
		return ErrEmptyMode
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("leaderboard: encode entry: %w", err)
	}
	member := e.RoundID.String()

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddNX(ctx, r.setKey(e.Mode), redis.Z{Score: float64(e.Score), Member: member})
		pipe.HSetNX(ctx, r.entriesKey(e.Mode), member, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("leaderboard: redis submit: %w", err)
	}
	return nil
}

// Top reads the n lowest scores. Equal scores come back in member order
// from Redis and are re-sorted by submission time.
func (r *Redis) Top(ctx context.Context, mode string, n int) ([]engine.ScoreEntry, error) {
	zs, err := r.rdb.ZRangeWithScores(ctx, r.setKey(mode), 0, int64(limit(n)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: redis range: %w", err)
	}
	if len(zs) == 0 {
		return []engine.ScoreEntry{}, nil
	}
	members := make([]string, len(zs))
	for i, z := range zs {
		members[i] = z.Member.(string)
	}
	raw, err := r.rdb.HMGet(ctx, r.entriesKey(mode), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: redis entries: %w", err)
	}

	out := make([]engine.ScoreEntry, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			// The hash write of a pipeline never lands without the set write,
			// but a manually trimmed hash would leave gaps.
			continue
		}
		var e engine.ScoreEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("leaderboard: decode entry %s: %w", members[i], err)
		}
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
