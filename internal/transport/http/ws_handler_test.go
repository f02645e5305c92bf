package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"nexus-arena-service/internal/app"
	"nexus-arena-service/internal/domain"
	"nexus-arena-service/internal/infra/memory"
)

func TestWebSocketSessionFlow(t *testing.T) {
	service := newTestService()
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	start := map[string]any{
		"type": "start",
		"payload": map[string]any{
			"mode":       "WIPEOUT",
			"subject":    "General Knowledge",
			"difficulty": "Foundational",
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		t.Fatalf("write start: %v", err)
	}

	// Subscription delivers the initial snapshot first.
	payload := readState(conn, t)
	if payload["phase"] != "awaitingAnswer" {
		t.Fatalf("expected awaitingAnswer, got %v", payload["phase"])
	}
	if payload["mode"] != "WIPEOUT" {
		t.Fatalf("expected WIPEOUT session, got %v", payload["mode"])
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"index": 1},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	payload = awaitPhase(conn, t, "showingExplanation")
	if payload["score"] != float64(50) {
		t.Fatalf("expected bank 50 after first correct answer, got %v", payload["score"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	payload = awaitPhase(conn, t, "awaitingAnswer")
	if payload["currentIndex"] != float64(1) {
		t.Fatalf("expected currentIndex 1 after advance, got %v", payload["currentIndex"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "abort"}); err != nil {
		t.Fatalf("write abort: %v", err)
	}
}

func TestWebSocketRejectsMissingUser(t *testing.T) {
	service := newTestService()
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketErrorForUnknownMode(t *testing.T) {
	service := newTestService()
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	start := map[string]any{
		"type":    "start",
		"payload": map[string]any{"mode": "SPEEDRUN"},
	}
	if err := conn.WriteJSON(start); err != nil {
		t.Fatalf("write start: %v", err)
	}

	typ, _ := readNext(conn, t)
	if typ != "error" {
		t.Fatalf("expected error message, got %s", typ)
	}
}

func newTestService() *app.ArenaService {
	loader := memory.NewStaticBatchLoader(map[string][]domain.Question{
		"General Knowledge": sampleBatch(),
	})
	questions := memory.NewQuestionRepository(loader, time.Minute)
	return app.NewArenaService(memory.NewSessionStore(), questions, memory.NewStatsStore())
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func readState(conn *websocket.Conn, t *testing.T) map[string]any {
	t.Helper()
	typ, payload := readNext(conn, t)
	if typ != "state" {
		t.Fatalf("expected state, got %s (%v)", typ, payload)
	}
	return payload
}

// awaitPhase skips intermediate broadcasts until the session reaches the
// given phase.
func awaitPhase(conn *websocket.Conn, t *testing.T, phase string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		payload := readState(conn, t)
		if payload["phase"] == phase {
			return payload
		}
	}
	t.Fatalf("session never reached phase %s", phase)
	return nil
}

func sampleBatch() []domain.Question {
	out := make([]domain.Question, 0, 10)
	for i := 0; i < 10; i++ {
		out = append(out, domain.Question{
			ID:                 fmt.Sprintf("q%d", i),
			Subject:            "General Knowledge",
			Difficulty:         domain.DifficultyFoundational,
			Text:               fmt.Sprintf("Question %d", i),
			Options:            []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswerIndex: 1,
			Explanation:        "beta is correct",
		})
	}
	return out
}
