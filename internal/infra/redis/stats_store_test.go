package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"nexus-arena-service/internal/domain"
)

func TestStatsStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStatsStore(newClient(mr))
	ctx := context.Background()

	stats := domain.UserStats{
		ApexScore:      6200,
		TotalQuestions: 40,
		CorrectAnswers: 31,
		Accuracy:       78,
		Milestones:     []string{"Pure Precision"},
	}
	if err := store.Save(ctx, "user-1", stats); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("arena:stats:user-1") {
		t.Fatalf("expected stats key to be set")
	}

	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ApexScore != stats.ApexScore || loaded.CorrectAnswers != stats.CorrectAnswers {
		t.Fatalf("loaded %+v, want %+v", loaded, stats)
	}
	if len(loaded.Milestones) != 1 || loaded.Milestones[0] != "Pure Precision" {
		t.Fatalf("milestones lost on round trip: %v", loaded.Milestones)
	}
}

func TestStatsStoreAbsentUserReadsZero(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStatsStore(newClient(mr))

	stats, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.TotalQuestions != 0 || stats.ApexScore != 0 {
		t.Fatalf("expected zero record, got %+v", stats)
	}
}
