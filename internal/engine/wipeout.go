package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// wipeoutRules: bank rising ladder gains while the streak holds; one wrong
// answer wipes the run immediately, keeping only the banked score.
type wipeoutRules struct{}

func (wipeoutRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	if !correct {
		applyStreak(&st, false)
		return st, Outcome{Terminal: finish(st, st.CurrentIndex+1, false)}
	}
	applyStreak(&st, true)

	idx := st.WipeoutStreak
	if idx >= len(domain.WipeoutPrizes) {
		idx = len(domain.WipeoutPrizes) - 1
	}
	gain := domain.WipeoutPrizes[idx] * st.NeuralLoad
	st.ActiveBank += gain
	st.Score += gain
	st.WipeoutStreak++
	return st, Outcome{Correct: true, Gain: gain}
}

func (wipeoutRules) EvaluateAdvance(st State, total int) (State, Advance) {
	return advanceOrFinish(st, total)
}
