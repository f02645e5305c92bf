package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// gauntletRules: survival on a short replenishing timer. Every 3rd correct
// answer buys back a few seconds; one wrong answer or an empty clock ends
// the run.
type gauntletRules struct{}

func (gauntletRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	if !correct {
		applyStreak(&st, false)
		return st, Outcome{Terminal: finish(st, st.CurrentIndex+1, false)}
	}
	applyStreak(&st, true)

	gain := domain.BasePoints * st.NeuralLoad
	st.Score += gain
	if (st.CurrentIndex+1)%3 == 0 {
		st.TimeLeft += domain.GauntletBonusSeconds
		if st.TimeLeft > domain.GauntletTimerCap {
			st.TimeLeft = domain.GauntletTimerCap
		}
	}
	return st, Outcome{Correct: true, Gain: gain}
}

func (gauntletRules) EvaluateAdvance(st State, total int) (State, Advance) {
	return advanceOrFinish(st, total)
}
