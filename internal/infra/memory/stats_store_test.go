package memory

import (
	"context"
	"testing"

	"nexus-arena-service/internal/domain"
)

func TestStatsStoreRoundTrip(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	// Absent users read as the zero record.
	stats, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.TotalQuestions != 0 || stats.ApexScore != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}

	want := domain.UserStats{ApexScore: 500, TotalQuestions: 10, CorrectAnswers: 8, Accuracy: 80}
	if err := store.Save(ctx, "u1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := store.Load(ctx, "u1")
	if got.ApexScore != 500 || got.Accuracy != 80 {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
