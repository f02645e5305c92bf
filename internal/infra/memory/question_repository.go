package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nexus-arena-service/internal/domain"
)

// BatchLoader fetches a question batch from a backing store (LLM provider,
// document DB, etc).
type BatchLoader interface {
	LoadBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error)
}

// QuestionRepository caches fetched batches with TTL to avoid repeated
// provider hits for the same mode/subject/difficulty request.
type QuestionRepository struct {
	loader BatchLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBatch
}

type cachedBatch struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader BatchLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBatch),
	}
}

func (r *QuestionRepository) GetBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error) {
	key := batchKey(settings, count)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		batch, err := r.loader.LoadBatch(ctx, settings, count)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedBatch{
			questions: batch,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// batchKey identifies one cacheable provider request.
func batchKey(settings domain.GameSettings, count int) string {
	return fmt.Sprintf("%s|%s|%s|%d", settings.Mode, settings.Subject, settings.Difficulty, count)
}

// StaticBatchLoader serves pre-baked question sets keyed by subject
// (useful for tests and demo runs without a provider).
type StaticBatchLoader struct {
	batches map[string][]domain.Question
}

func NewStaticBatchLoader(batches map[string][]domain.Question) *StaticBatchLoader {
	return &StaticBatchLoader{batches: batches}
}

// LoadBatch returns count questions for the subject, cycling the stored set
// when it is shorter than the request. Cycled copies get suffixed IDs so
// every entry stays unique.
func (l *StaticBatchLoader) LoadBatch(_ context.Context, settings domain.GameSettings, count int) ([]domain.Question, error) {
	base, ok := l.batches[settings.Subject]
	if !ok || len(base) == 0 {
		return nil, domain.ErrBatchUnavailable
	}
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		q := base[i%len(base)]
		if i >= len(base) {
			q.ID = fmt.Sprintf("%s-%d", q.ID, i/len(base))
		}
		out = append(out, q)
	}
	return out, nil
}
