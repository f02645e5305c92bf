package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// teamBattleRules: squads take turns round-robin, one point per correct
// answer on the active squad. The session-global score stays untouched;
// the global correct counter still tracks accuracy for the stats fold.
type teamBattleRules struct{}

func (teamBattleRules) EvaluateAnswer(st State, q domain.Question, chosen int, elapsed time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	applyStreak(&st, correct)

	st.Teams = cloneTeams(st.Teams)
	team := &st.Teams[st.CurrentTeam]
	team.QuestionsAnswered++
	team.ResponseTimeTotal += elapsed.Milliseconds()
	if correct {
		team.Score++
	}
	return st, Outcome{Correct: correct}
}

func (teamBattleRules) EvaluateAdvance(st State, total int) (State, Advance) {
	st, adv := advanceOrFinish(st, total)
	if adv.Terminal == nil {
		st.CurrentTeam = (st.CurrentTeam + 1) % len(st.Teams)
	}
	return st, adv
}
