package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"nexus-arena-service/internal/domain"
)

// SessionRepository abstracts how live sessions are tracked (in-memory,
// Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuestionRepository fetches a validated-size question batch for a session.
type QuestionRepository interface {
	GetBatch(ctx context.Context, settings domain.GameSettings, count int) ([]domain.Question, error)
}

// StatsStore persists the aggregate UserStats record per user.
type StatsStore interface {
	Load(ctx context.Context, userID string) (domain.UserStats, error)
	Save(ctx context.Context, userID string, stats domain.UserStats) error
}

// ArenaService wires sessions to their collaborators: question provider,
// stats store, and event sink.
type ArenaService struct {
	sessions  SessionRepository
	questions QuestionRepository
	stats     StatsStore
	sink      EventSink

	resolveDelay     time.Duration
	confirmLifelines bool
}

// ServiceOption tweaks ArenaService construction.
type ServiceOption func(*ArenaService)

// WithResolveDelay sets the presentation delay between answer submission
// and result visibility.
func WithResolveDelay(d time.Duration) ServiceOption {
	return func(s *ArenaService) { s.resolveDelay = d }
}

// WithLifelineConfirmation enables the two-step lifeline commit flow.
func WithLifelineConfirmation(on bool) ServiceOption {
	return func(s *ArenaService) { s.confirmLifelines = on }
}

// WithEventSink routes presentation events to the given sink.
func WithEventSink(sink EventSink) ServiceOption {
	return func(s *ArenaService) { s.sink = sink }
}

func NewArenaService(sessions SessionRepository, questions QuestionRepository, stats StatsStore, opts ...ServiceOption) *ArenaService {
	s := &ArenaService{
		sessions:  sessions,
		questions: questions,
		stats:     stats,
		sink:      nopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession fetches and validates a question batch, then creates the
// session. A fetch or validation failure aborts the start; no partial
// session is created.
func (s *ArenaService) StartSession(ctx context.Context, userID string, settings domain.GameSettings) (Snapshot, error) {
	if _, err := domain.ParseMode(string(settings.Mode)); err != nil {
		return Snapshot{}, err
	}
	if settings.TeamCount < 1 {
		settings.TeamCount = 1
	}

	count := domain.BatchSize(settings.Mode, settings.TeamCount)
	batch, err := s.questions.GetBatch(ctx, settings, count)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch questions: %w", err)
	}
	if err := domain.ValidateBatch(settings.Mode, batch, count); err != nil {
		return Snapshot{}, err
	}

	session := NewSession(SessionConfig{
		Settings:         settings,
		Questions:        batch,
		ResolveDelay:     s.resolveDelay,
		ConfirmLifelines: s.confirmLifelines,
		Sink:             s.sink,
		OnFinish: func(sessionID string, res domain.SessionResult) {
			s.foldResult(userID, res)
			s.sessions.Delete(sessionID)
		},
	})
	s.sessions.Put(session)
	return session.Snapshot(), nil
}

// SubmitAnswer forwards an answer to the session.
func (s *ArenaService) SubmitAnswer(id string, index int) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	session.SubmitAnswer(index)
	return s.afterEvent(session), nil
}

// UseLifeline forwards a lifeline request to the session.
func (s *ArenaService) UseLifeline(id string, kind domain.LifelineType) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	session.UseLifeline(kind)
	return session.Snapshot(), nil
}

// Advance dismisses the current explanation.
func (s *ArenaService) Advance(id string) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	session.Advance()
	return s.afterEvent(session), nil
}

// Abort halts a session and discards it without a result.
func (s *ArenaService) Abort(id string) error {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Abort()
	s.sessions.Delete(id)
	return nil
}

// Snapshot returns the current observable state of a session.
func (s *ArenaService) Snapshot(id string) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe streams state snapshots for a session.
func (s *ArenaService) Subscribe(id string) (<-chan Snapshot, func(), error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// afterEvent drops sessions that just terminated so handles stop resolving.
func (s *ArenaService) afterEvent(session *Session) Snapshot {
	snap := session.Snapshot()
	if snap.Phase == PhaseTerminated {
		s.sessions.Delete(session.ID())
	}
	return snap
}

// foldResult merges a session outcome into the persisted aggregate record.
func (s *ArenaService) foldResult(userID string, res domain.SessionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := s.stats.Load(ctx, userID)
	if err != nil {
		log.Printf("load stats for %s: %v", userID, err)
		stats = domain.UserStats{}
	}
	stats = FoldStats(stats, res)
	if err := s.stats.Save(ctx, userID, stats); err != nil {
		log.Printf("save stats for %s: %v", userID, err)
	}
}

// FoldStats applies one session result to the aggregate record: apex is the
// best score ever, accuracy is recomputed from lifetime counts, and
// milestones unlock once.
func FoldStats(stats domain.UserStats, res domain.SessionResult) domain.UserStats {
	stats.TotalQuestions += res.TotalAnswered
	stats.CorrectAnswers += res.CorrectCount
	if res.Score > stats.ApexScore {
		stats.ApexScore = res.Score
	}
	if stats.TotalQuestions > 0 {
		stats.Accuracy = int(math.Round(float64(stats.CorrectAnswers) / float64(stats.TotalQuestions) * 100))
	} else {
		stats.Accuracy = 0
	}
	if stats.Accuracy >= 95 && stats.TotalQuestions >= 30 {
		stats.Milestones = unlock(stats.Milestones, domain.MilestonePurePrecision)
	}
	if stats.ApexScore >= 10000 {
		stats.Milestones = unlock(stats.Milestones, domain.MilestoneEliteHub)
	}
	return stats
}

func unlock(milestones []string, name string) []string {
	for _, m := range milestones {
		if m == name {
			return milestones
		}
	}
	return append(milestones, name)
}
