package app

import (
	"nexus-arena-service/internal/domain"
)

// Snapshot is the read-only observation of a session used for rendering.
type Snapshot struct {
	ID           string              `json:"id"`
	Phase        Phase               `json:"phase"`
	Mode         domain.GameMode     `json:"mode"`
	CurrentIndex int                 `json:"currentIndex"`
	Total        int                 `json:"total"`
	Question     *domain.Question    `json:"question,omitempty"`
	Explanation  string              `json:"explanation,omitempty"`
	Score        int                 `json:"score"`
	CorrectCount int                 `json:"correctCount"`
	TimeLeft     int                 `json:"timeLeft,omitempty"`
	NeuralLoad   int                 `json:"neuralLoad"`
	ActiveBank   int                 `json:"activeBank,omitempty"`
	Streak       int                 `json:"streak"`
	Teams        []domain.Team       `json:"teams,omitempty"`
	CurrentTeam  int                 `json:"currentTeam"`
	Conquered    []string            `json:"conquered,omitempty"`
	Selected     int                 `json:"selectedAnswer"`
	Lifelines    domain.Lifelines    `json:"lifelines"`
	Disabled     []int               `json:"disabledOptions,omitempty"`
	Poll         []int               `json:"pollResults,omitempty"`
	ExpertHint   string              `json:"expertHint,omitempty"`
	PendingAid   domain.LifelineType `json:"pendingLifeline,omitempty"`
	Result       *domain.SessionResult `json:"result,omitempty"`
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state
// change, starting with the current one. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow reader never blocks
			// the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Snapshot]struct{})
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:           s.id,
		Phase:        s.phase,
		Mode:         s.settings.Mode,
		CurrentIndex: s.st.CurrentIndex,
		Total:        s.total,
		Score:        s.st.Score,
		CorrectCount: s.st.CorrectCount,
		NeuralLoad:   s.st.NeuralLoad,
		Streak:       s.st.Streak,
		ActiveBank:   s.st.ActiveBank,
		CurrentTeam:  s.st.CurrentTeam,
		Selected:     s.selected,
		Lifelines:    s.lifelines,
		PendingAid:   s.pendingAid,
	}
	if s.settings.Mode.Timed() {
		snap.TimeLeft = s.st.TimeLeft
	}
	if len(s.st.Teams) > 0 {
		snap.Teams = append([]domain.Team(nil), s.st.Teams...)
	}
	if len(s.st.Conquered) > 0 {
		snap.Conquered = append([]string(nil), s.st.Conquered...)
	}
	if len(s.disabled) > 0 {
		snap.Disabled = append([]int(nil), s.disabled...)
	}
	if len(s.poll) > 0 {
		snap.Poll = append([]int(nil), s.poll...)
	}
	snap.ExpertHint = s.expertHint

	if s.phase != PhaseTerminated && s.st.CurrentIndex < len(s.questions) {
		q := s.questions[s.st.CurrentIndex]
		snap.Question = &q
		if s.phase == PhaseExplanation {
			snap.Explanation = q.Explanation
		}
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}
