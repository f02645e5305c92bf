package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// millionaireRules: fixed prize ladder where the score is replaced on each
// correct answer. A wrong answer does not end the session on the spot; the
// session falls back to the last passed safety net when the player tries to
// move past the missed question.
type millionaireRules struct{}

func (millionaireRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	applyStreak(&st, correct)
	out := Outcome{Correct: correct}
	if correct && st.CurrentIndex < len(domain.MillionaireLadder) {
		st.Score = domain.MillionaireLadder[st.CurrentIndex]
		out.Gain = st.Score
	}
	return st, out
}

func (millionaireRules) EvaluateAdvance(st State, total int) (State, Advance) {
	if !st.LastCorrect {
		st.Score = safetyNetValue(st.CurrentIndex)
		return st, Advance{Terminal: finish(st, st.CurrentIndex+1, false)}
	}
	return advanceOrFinish(st, total)
}

// safetyNetValue is the score retained after a wrong answer at index.
func safetyNetValue(index int) int {
	switch {
	case index > domain.SafetyNets[1]:
		return domain.MillionaireLadder[domain.SafetyNets[1]]
	case index > domain.SafetyNets[0]:
		return domain.MillionaireLadder[domain.SafetyNets[0]]
	default:
		return 0
	}
}
