package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"nexus-arena-service/internal/domain"
	"nexus-arena-service/internal/infra/memory"
)

// QuestionRepository caches full question batches in Redis as JSON blobs
// and falls back to a loader on cache miss. Unlike an answer-key cache, the
// session runner needs complete questions (text, options, explanations), so
// the whole batch is stored under one key:
//
//	SET arena:batch:{mode}:{subject}:{difficulty}:{count} <json> EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader memory.BatchLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.BatchLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error) {
	key := r.key(settings, count)

	if batch, ok := r.fromCache(ctx, key); ok {
		return batch, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if batch, ok := r.fromCache(ctx, key); ok {
			return batch, nil
		}

		batch, err := r.loader.LoadBatch(ctx, settings, count)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(batch); err == nil {
			// best-effort; a failed cache write never fails the fetch
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var batch []domain.Question
	if err := json.Unmarshal(raw, &batch); err != nil || len(batch) == 0 {
		return nil, false
	}
	return batch, true
}

func (r *QuestionRepository) key(settings domain.GameSettings, count int) string {
	return fmt.Sprintf("arena:batch:%s:%s:%s:%d", settings.Mode, settings.Subject, settings.Difficulty, count)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
