package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// lightningRules: race the 60 second clock; correct answers score flat
// points scaled by neural load, wrong answers cost nothing.
type lightningRules struct{}

func (lightningRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	applyStreak(&st, correct)
	out := Outcome{Correct: correct}
	if correct {
		out.Gain = domain.BasePoints * st.NeuralLoad
		st.Score += out.Gain
	}
	return st, out
}

func (lightningRules) EvaluateAdvance(st State, total int) (State, Advance) {
	return advanceOrFinish(st, total)
}
