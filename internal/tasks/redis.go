package tasks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newit5s/tablebook/pkg/logger"
)

const scheduleKey = "tablebook:cleanup_schedule"

// RedisScheduler persists pending schedules in a redis sorted set (score =
// fire time) on top of an inner scheduler, so a restarted process can
// re-arm transitions that were still pending.
type RedisScheduler struct {
	inner Scheduler
	rdb   *redis.Client
}

func NewRedisScheduler(inner Scheduler, rdb *redis.Client) *RedisScheduler {
	return &RedisScheduler{inner: inner, rdb: rdb}
}

func (s *RedisScheduler) Schedule(ctx context.Context, taskID string, at time.Time) error {
	if err := s.rdb.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: taskID,
	}).Err(); err != nil {
		logger.WarnContext(ctx, "failed to persist schedule", "task_id", taskID, "error", err)
	}
	return s.inner.Schedule(ctx, taskID, at)
}

func (s *RedisScheduler) Cancel(ctx context.Context, taskID string) error {
	if err := s.rdb.ZRem(ctx, scheduleKey, taskID).Err(); err != nil {
		logger.WarnContext(ctx, "failed to remove persisted schedule", "task_id", taskID, "error", err)
	}
	return s.inner.Cancel(ctx, taskID)
}

// Complete drops the persisted entry once a task has fired.
func (s *RedisScheduler) Complete(ctx context.Context, taskID string) {
	if err := s.rdb.ZRem(ctx, scheduleKey, taskID).Err(); err != nil {
		logger.WarnContext(ctx, "failed to clear fired schedule", "task_id", taskID, "error", err)
	}
}

// Restore re-arms every persisted schedule through the inner scheduler.
// Past-due entries fire shortly after startup.
func (s *RedisScheduler) Restore(ctx context.Context) error {
	entries, err := s.rdb.ZRangeWithScores(ctx, scheduleKey, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, e := range entries {
		taskID, ok := e.Member.(string)
		if !ok {
			continue
		}
		at := time.Unix(int64(e.Score), 0)
		if err := s.inner.Schedule(ctx, taskID, at); err != nil {
			return err
		}
		logger.InfoContext(ctx, "restored pending cleanup schedule", "task_id", taskID, "at", at)
	}
	return nil
}
