// internal/common/usage/store.go
package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subtrack-workers/internal/common/database"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/entitlements"

	"github.com/redis/go-redis/v9"
)

const loadQuery = `SELECT COALESCE((SELECT tier FROM user_plans WHERE user_id = $1), 'free'),
	(SELECT COUNT(*) FROM subscriptions WHERE user_id = $1),
	(SELECT COUNT(*) FROM team_members WHERE owner_id = $1)`

// Snapshot is a user's plan tier and live counters at one point in time.
type Snapshot struct {
	UserID        string `json:"userId"`
	Tier          string `json:"tier"`
	Subscriptions int    `json:"subscriptions"`
	TeamMembers   int    `json:"teamMembers"`
}

func (s Snapshot) Usage() entitlements.Usage {
	return entitlements.NewUsage(s.Subscriptions, s.TeamMembers)
}

// Store reads snapshots from Postgres through a Redis cache. A nil Redis
// client disables caching.
type Store struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{db: db, redis: rdb, ttl: ttl, logger: log}
}

func CacheKey(userID string) string {
	return database.UsageKeyPrefix + userID
}

// Load returns the user's snapshot. Users without a plan row are on free.
func (s *Store) Load(ctx context.Context, userID string) (Snapshot, error) {
	key := CacheKey(userID)
	if s.redis != nil {
		val, err := s.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var snap Snapshot
			if jsonErr := json.Unmarshal([]byte(val), &snap); jsonErr == nil {
				return snap, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("usage cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}

	snap := Snapshot{UserID: userID}
	if err := s.db.QueryRowContext(ctx, loadQuery, userID).Scan(&snap.Tier, &snap.Subscriptions, &snap.TeamMembers); err != nil {
		return Snapshot{}, fmt.Errorf("load usage for %s: %w", userID, err)
	}

	if s.redis != nil {
		data, _ := json.Marshal(snap)
		if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("usage cache write failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot after the counters changed.
func (s *Store) Invalidate(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, CacheKey(userID)).Err()
}
