package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"nexus-arena-service/internal/domain"
	"nexus-arena-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		BatchLoader: memory.NewStaticBatchLoader(map[string][]domain.Question{
			"General Knowledge": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)
	settings := domain.GameSettings{Mode: domain.ModeWipeout, Subject: "General Knowledge", Difficulty: domain.DifficultyFoundational}

	batch, err := repo.GetBatch(context.Background(), settings, 10)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if len(batch) != 10 {
		t.Fatalf("got %d questions, want 10", len(batch))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("arena:batch:WIPEOUT:General Knowledge:Foundational:10") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache with the full question payload intact.
	cached, err := repo.GetBatch(context.Background(), settings, 10)
	if err != nil {
		t.Fatalf("get batch 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached[0].Explanation == "" || len(cached[0].Options) != 4 {
		t.Fatalf("cache dropped question content: %+v", cached[0])
	}
}

type countingLoader struct {
	memory.BatchLoader
	calls int
}

func (l *countingLoader) LoadBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error) {
	l.calls++
	return l.BatchLoader.LoadBatch(ctx, settings, count)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:                 "q1",
			Subject:            "General Knowledge",
			Difficulty:         domain.DifficultyFoundational,
			Text:               "What is 2 + 2?",
			Options:            []string{"3", "4", "5", "6"},
			CorrectAnswerIndex: 1,
			Explanation:        "Basic addition.",
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
