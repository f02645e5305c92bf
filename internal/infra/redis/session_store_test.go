package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"nexus-arena-service/internal/app"
	"nexus-arena-service/internal/domain"
)

func TestSessionStoreSetsAndClearsLivenessKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	session := app.NewSession(app.SessionConfig{
		Settings: domain.GameSettings{Mode: domain.ModeWipeout},
		Questions: []domain.Question{{
			ID: "q1", Subject: "General Knowledge", Text: "q",
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: 0,
		}},
		TickInterval: time.Hour,
	})
	store.Put(session)

	if got, ok := store.Get(session.ID()); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if !mr.Exists("arena:session:" + session.ID()) {
		t.Fatalf("expected liveness key after Put")
	}

	store.Delete(session.ID())
	if _, ok := store.Get(session.ID()); ok {
		t.Fatalf("expected session removed")
	}
	if mr.Exists("arena:session:" + session.ID()) {
		t.Fatalf("expected liveness key cleared after Delete")
	}
}
