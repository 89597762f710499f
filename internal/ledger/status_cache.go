package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

const statusCachePrefix = "ledger:status:"

// StatusCache fronts a Gateway with a Redis cache of committed statuses.
// Only the committed state is cached because it never changes; pending and
// not-found always go to the ledger.
type StatusCache struct {
	next   Gateway
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStatusCache(next Gateway, rdb *redis.Client, ttl time.Duration, log logger.Logger) *StatusCache {
	return &StatusCache{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "ledger.status_cache"}),
	}
}

func cacheKey(key models.AssessmentKey) string {
	return statusCachePrefix + key.String()
}

func (c *StatusCache) Commit(ctx context.Context, payload models.CommitPayload, key models.AssessmentKey) (models.TxHandle, error) {
	handle, err := c.next.Commit(ctx, payload, key)
	if err == nil {
		c.store(ctx, key, models.CommitStatus{State: models.CommitStateCommitted, Handle: handle})
		return handle, nil
	}
	if dup, ok := AsAlreadyCommitted(err); ok && dup.Handle != "" {
		c.store(ctx, key, models.CommitStatus{State: models.CommitStateCommitted, Handle: dup.Handle})
	}
	return "", err
}

func (c *StatusCache) Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error) {
	val, err := c.redis.Get(ctx, cacheKey(key)).Result()
	switch {
	case err == nil:
		var status models.CommitStatus
		if jsonErr := json.Unmarshal([]byte(val), &status); jsonErr == nil && status.State == models.CommitStateCommitted {
			return status, nil
		}
		c.logger.Warn("discarding unreadable cached status", map[string]interface{}{"assessmentKey": key.String()})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("status cache read failed", map[string]interface{}{
			"assessmentKey": key.String(),
			"error":         err,
		})
	}

	status, err := c.next.Status(ctx, key)
	if err != nil {
		return models.CommitStatus{}, err
	}
	if status.State == models.CommitStateCommitted {
		c.store(ctx, key, status)
	}
	return status, nil
}

func (c *StatusCache) store(ctx context.Context, key models.AssessmentKey, status models.CommitStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("status cache write failed", map[string]interface{}{
			"assessmentKey": key.String(),
			"error":         err,
		})
	}
}
