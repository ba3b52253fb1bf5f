// workers/leaderboard_sync.go
package workers

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pingpair/services"
	"pingpair/utils"
)

// LeaderboardSource yields the full leaderboard (limit <= 0 means everyone).
type LeaderboardSource interface {
	Leaderboard(metric services.LeaderboardMetric, limit int) []services.LeaderboardEntry
}

// SortedSetWriter is the subset of *redis.Client used to mirror the board.
type SortedSetWriter interface {
	ZAdd(ctx context.Context, key string, members ...goredis.Z) *goredis.IntCmd
	Rename(ctx context.Context, key, newkey string) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// LeaderboardSync mirrors scores into a Redis sorted set so chat
// adapters can read rankings without calling the service.
type LeaderboardSync struct {
	source   LeaderboardSource
	rdb      SortedSetWriter
	key      string
	interval time.Duration
	log      *utils.Logger
}

func NewLeaderboardSync(source LeaderboardSource, rdb SortedSetWriter, key string, interval time.Duration, log *utils.Logger) *LeaderboardSync {
	return &LeaderboardSync{source: source, rdb: rdb, key: key, interval: interval, log: log}
}

func leaderboardMembers(entries []services.LeaderboardEntry) []goredis.Z {
	members := make([]goredis.Z, len(entries))
	for i, e := range entries {
		members[i] = goredis.Z{Score: float64(e.Score), Member: e.UserID}
	}
	return members
}

// Sync replaces the sorted set: members are written to a staging key that is
// then renamed over the live one.
func (w *LeaderboardSync) Sync(ctx context.Context) (int, error) {
	members := leaderboardMembers(w.source.Leaderboard(services.LeaderboardByScore, 0))
	if len(members) == 0 {
		if err := w.rdb.Del(ctx, w.key).Err(); err != nil {
			return 0, fmt.Errorf("clear leaderboard %q: %w", w.key, err)
		}
		return 0, nil
	}

	staging := w.key + ":staging"
	if err := w.rdb.ZAdd(ctx, staging, members...).Err(); err != nil {
		return 0, fmt.Errorf("write leaderboard staging %q: %w", staging, err)
	}
	if err := w.rdb.Rename(ctx, staging, w.key).Err(); err != nil {
		return 0, fmt.Errorf("publish leaderboard %q: %w", w.key, err)
	}
	return len(members), nil
}

// Run syncs on every tick until ctx is cancelled.
func (w *LeaderboardSync) Run(ctx context.Context) {
	w.log.Info("🏆 [LEADERBOARD] mirror started", "key", w.key, "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("⏹️ [LEADERBOARD] mirror stopped")
			return
		case <-ticker.C:
			n, err := w.Sync(ctx)
			if err != nil {
				w.log.Error("❌ [LEADERBOARD] sync failed", "error", err)
				continue
			}
			w.log.Debug("🏆 [LEADERBOARD] synced", "members", n)
		}
	}
}
