package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// categoryKingsRules: the batch is 6 contiguous blocks of 3 questions, one
// sub-category each. A perfect block conquers its category for a flat
// bonus; conquering all 6 ends the session early with success.
type categoryKingsRules struct{}

func (categoryKingsRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	applyStreak(&st, correct)
	st.CategoryHistory = cloneHistory(st.CategoryHistory)

	if !correct {
		st.CategoryStreak = 0
		st.CategoryHistory[q.Subject] = make([]bool, domain.CategoryBlockSize)
		return st, Outcome{}
	}

	hist, ok := st.CategoryHistory[q.Subject]
	if !ok {
		hist = make([]bool, domain.CategoryBlockSize)
	} else {
		hist = append([]bool(nil), hist...)
	}
	if st.CategoryStreak < domain.CategoryBlockSize {
		hist[st.CategoryStreak] = true
	}
	st.CategoryHistory[q.Subject] = hist
	st.CategoryStreak++

	out := Outcome{Correct: true}
	if st.CategoryStreak == domain.CategoryBlockSize {
		out.Gain = domain.CategoryBonus
		st.Score += out.Gain
		st.Conquered = append(append([]string(nil), st.Conquered...), q.Subject)
	}
	return st, out
}

func (categoryKingsRules) EvaluateAdvance(st State, total int) (State, Advance) {
	if len(st.Conquered) == domain.CategoryCount {
		return st, Advance{Terminal: finish(st, st.CurrentIndex+1, true)}
	}
	// Block boundary: the streak never carries into the next sub-category.
	if (st.CurrentIndex+1)%domain.CategoryBlockSize == 0 {
		st.CategoryStreak = 0
	}
	return advanceOrFinish(st, total)
}

func cloneHistory(hist map[string][]bool) map[string][]bool {
	out := make(map[string][]bool, len(hist))
	for k, v := range hist {
		out[k] = append([]bool(nil), v...)
	}
	return out
}
