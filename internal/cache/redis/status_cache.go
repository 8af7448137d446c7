package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// statusTTL bounds how long a stale status hash survives a stopped bot.
const statusTTL = 24 * time.Hour

// StatusCache implements domain.StatusCache as one Redis hash per stream.
type StatusCache struct {
	rdb *redis.Client
}

var _ domain.StatusCache = (*StatusCache)(nil)

// NewStatusCache creates a StatusCache backed by the given Client.
func NewStatusCache(c *Client) *StatusCache {
	return &StatusCache{rdb: c.Underlying()}
}

func statusKey(instance int, asset string) string {
	return fmt.Sprintf("status:%d:%s", instance, asset)
}

// SetSample stores the latest equity sample under the stream's status key.
func (sc *StatusCache) SetSample(ctx context.Context, instance int, asset string, sample domain.EquitySample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("redis: marshal sample: %w", err)
	}

	key := statusKey(instance, asset)
	fields := map[string]interface{}{
		"sample":     payload,
		"updated_at": time.Now().UTC().Unix(),
	}
	if err := sc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set sample %s: %w", key, err)
	}
	if err := sc.rdb.Expire(ctx, key, statusTTL).Err(); err != nil {
		return fmt.Errorf("redis: expire %s: %w", key, err)
	}
	return nil
}

// SetDiscrepancy stores the latest hedge discrepancy under the stream's
// status key.
func (sc *StatusCache) SetDiscrepancy(ctx context.Context, instance int, asset string, discrepancy float64) error {
	key := statusKey(instance, asset)
	fields := map[string]interface{}{
		"discrepancy": strconv.FormatFloat(discrepancy, 'f', -1, 64),
		"updated_at":  time.Now().UTC().Unix(),
	}
	if err := sc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set discrepancy %s: %w", key, err)
	}
	return nil
}
