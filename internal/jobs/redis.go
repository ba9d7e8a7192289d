package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const (
	jobKeyPrefix  = "docvault:job:"
	docsKeySuffix = ":docs"
)

// RedisTracker keeps batch counters in Redis hashes so progress polls can
// hit any replica. Keys expire after the retention window instead of
// being reaped.
type RedisTracker struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisTracker(client *redis.Client, retention time.Duration) *RedisTracker {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisTracker{client: client, retention: retention}
}

func (t *RedisTracker) Create(ctx context.Context, total int) (string, error) {
	id := uuid.NewString()
	key := jobKeyPrefix + id

	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, "total", total, "uploaded", 0, "enriched", 0, "persisted", 0)
	pipe.Expire(ctx, key, t.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return id, nil
}

func (t *RedisTracker) RecordUpload(ctx context.Context, jobID, documentID string) error {
	key := jobKeyPrefix + jobID
	if err := t.requireJob(ctx, key); err != nil {
		return err
	}

	pipe := t.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "uploaded", 1)
	if documentID != "" {
		pipe.HIncrBy(ctx, key, "persisted", 1)
		docsKey := key + docsKeySuffix
		pipe.RPush(ctx, docsKey, documentID)
		pipe.Expire(ctx, docsKey, t.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

func (t *RedisTracker) RecordEnrichmentAttempt(ctx context.Context, jobID string) error {
	key := jobKeyPrefix + jobID
	if err := t.requireJob(ctx, key); err != nil {
		return err
	}
	if err := t.client.HIncrBy(ctx, key, "enriched", 1).Err(); err != nil {
		return fmt.Errorf("record enrichment attempt: %w", err)
	}
	return nil
}

func (t *RedisTracker) Progress(ctx context.Context, jobID string) (domain.BulkJobProgress, bool, error) {
	fields, err := t.client.HGetAll(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return domain.BulkJobProgress{}, false, fmt.Errorf("read job: %w", err)
	}
	if len(fields) == 0 {
		return domain.BulkJobProgress{}, false, nil
	}
	return domain.BulkJobProgress{
		Total:     atoiField(fields, "total"),
		Uploaded:  atoiField(fields, "uploaded"),
		Enriched:  atoiField(fields, "enriched"),
		Persisted: atoiField(fields, "persisted"),
	}, true, nil
}

func (t *RedisTracker) DocumentIDs(ctx context.Context, jobID string) ([]string, error) {
	key := jobKeyPrefix + jobID
	if err := t.requireJob(ctx, key); err != nil {
		return nil, err
	}
	ids, err := t.client.LRange(ctx, key+docsKeySuffix, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read job documents: %w", err)
	}
	return ids, nil
}

func (t *RedisTracker) requireJob(ctx context.Context, key string) error {
	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check job: %w", err)
	}
	if exists == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func atoiField(fields map[string]string, name string) int {
	n, _ := strconv.Atoi(fields[name])
	return n
}
