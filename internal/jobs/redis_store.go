package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"billing-backend/internal/models"
)

// jobTTL bounds how long finished jobs stay queryable. Callers poll or
// stream within seconds of submission, a day is generous.
const jobTTL = 24 * time.Hour

// RedisStore keeps job metadata in Redis so status survives restarts and
// is visible across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("uac:job:%s", jobID)
}

func (s *RedisStore) Put(ctx context.Context, meta models.JobMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", meta.JobID, err)
	}
	return s.client.Set(ctx, jobKey(meta.JobID), payload, jobTTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*models.JobMetadata, error) {
	payload, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	var meta models.JobMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &meta, nil
}

func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	return s.client.Del(ctx, jobKey(jobID)).Err()
}
