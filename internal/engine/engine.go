// Package engine holds the scoring and progression rules for every game
// mode. Rules are pure: they take a state snapshot by value and hand back
// the updated state plus an outcome, so the session controller can commit
// the effect after any presentation delay.
package engine

import (
	"time"

	"nexus-arena-service/internal/domain"
)

// State is the mode-dependent scoring sub-state owned by a session.
type State struct {
	Mode         domain.GameMode
	CurrentIndex int
	Score        int
	CorrectCount int

	// Countdown seconds; meaningful only in timed modes.
	TimeLeft int

	// Dynamic difficulty.
	Streak     int
	NeuralLoad int

	// Wipeout.
	ActiveBank    int
	WipeoutStreak int

	// TeamBattle.
	Teams       []domain.Team
	CurrentTeam int

	// CategoryKings.
	CategoryStreak  int
	Conquered       []string
	CategoryHistory map[string][]bool

	// Whether the most recent answer was correct; consumed by
	// Millionaire's deferred termination on advance.
	LastCorrect bool
}

// NewState initializes scoring state for a session.
func NewState(settings domain.GameSettings) State {
	st := State{
		Mode:       settings.Mode,
		NeuralLoad: 1,
	}
	switch settings.Mode {
	case domain.ModeLightning:
		st.TimeLeft = domain.LightningSeconds
	case domain.ModeGauntlet:
		st.TimeLeft = domain.GauntletSeconds
	case domain.ModeTeamBattle:
		n := settings.TeamCount
		if n < 1 {
			n = 1
		}
		st.Teams = make([]domain.Team, n)
		for i := range st.Teams {
			st.Teams[i].Name = "SQUAD " + string(rune('A'+i))
		}
	case domain.ModeCategoryKings:
		st.CategoryHistory = make(map[string][]bool)
	}
	return st
}

// Outcome is the result of evaluating a single answer.
type Outcome struct {
	Correct bool
	Gain    int
	// Terminal is non-nil when the answer ends the session immediately.
	Terminal *domain.SessionResult
}

// Advance is the result of evaluating a question dismissal.
type Advance struct {
	// Terminal is non-nil when the session ends instead of advancing.
	Terminal *domain.SessionResult
}

// Rules is the two-operation contract every mode variant implements.
type Rules interface {
	// EvaluateAnswer scores one answer against the current question.
	EvaluateAnswer(st State, q domain.Question, chosen int, elapsed time.Duration) (State, Outcome)
	// EvaluateAdvance decides whether dismissing the current question
	// advances the session or terminates it. total is the effective
	// question count for the session.
	EvaluateAdvance(st State, total int) (State, Advance)
}

// ForMode returns the rules variant for a mode tag. Unmatched modes fall
// back to flat per-question scoring.
func ForMode(mode domain.GameMode) Rules {
	switch mode {
	case domain.ModeWipeout:
		return wipeoutRules{}
	case domain.ModeLightning:
		return lightningRules{}
	case domain.ModeMillionaire:
		return millionaireRules{}
	case domain.ModeTeamBattle:
		return teamBattleRules{}
	case domain.ModeGauntlet:
		return gauntletRules{}
	case domain.ModeCategoryKings:
		return categoryKingsRules{}
	default:
		return standardRules{}
	}
}

// EffectiveTotal is the number of questions a session runs through:
// teamCount*5 for TeamBattle, the batch length otherwise.
func EffectiveTotal(st State, batchLen int) int {
	if st.Mode == domain.ModeTeamBattle {
		return len(st.Teams) * domain.TeamQuestionsEach
	}
	return batchLen
}

// EvaluateTimeout ends a timed session whose countdown reached zero.
// Gauntlet treats the exhausted timer as a failure; Lightning treats it as
// the natural end of the time box.
func EvaluateTimeout(st State) domain.SessionResult {
	res := domain.SessionResult{
		Score:         st.Score,
		CorrectCount:  st.CorrectCount,
		TotalAnswered: st.CurrentIndex,
		Success:       st.Mode != domain.ModeGauntlet,
	}
	if st.Mode == domain.ModeTeamBattle {
		res.TeamResults = cloneTeams(st.Teams)
	}
	return res
}

// applyStreak updates the global streak and neural-load multiplier and
// bumps the correct counter. Runs before any gain is computed so the answer
// that reaches the streak threshold already earns the raised multiplier.
func applyStreak(st *State, correct bool) {
	st.LastCorrect = correct
	if correct {
		st.CorrectCount++
		st.Streak++
		if st.Streak >= 3 && st.NeuralLoad < domain.MaxNeuralLoad {
			st.NeuralLoad++
		}
		return
	}
	st.Streak = 0
	st.NeuralLoad = 1
}

// finish builds a terminal result from the current state.
func finish(st State, answered int, success bool) *domain.SessionResult {
	res := &domain.SessionResult{
		Score:         st.Score,
		CorrectCount:  st.CorrectCount,
		TotalAnswered: answered,
		Success:       success,
	}
	if st.Mode == domain.ModeTeamBattle {
		res.TeamResults = cloneTeams(st.Teams)
	}
	return res
}

// advanceOrFinish is the shared tail of every EvaluateAdvance: terminate
// with success at the last question, otherwise move to the next one.
func advanceOrFinish(st State, total int) (State, Advance) {
	if st.CurrentIndex >= total-1 {
		return st, Advance{Terminal: finish(st, st.CurrentIndex+1, true)}
	}
	st.CurrentIndex++
	return st, Advance{}
}

func cloneTeams(teams []domain.Team) []domain.Team {
	out := make([]domain.Team, len(teams))
	copy(out, teams)
	return out
}

// standardRules covers any future mode tag: flat points on correct, no
// penalty on wrong, no early termination.
type standardRules struct{}

func (standardRules) EvaluateAnswer(st State, q domain.Question, chosen int, _ time.Duration) (State, Outcome) {
	correct := chosen == q.CorrectAnswerIndex
	applyStreak(&st, correct)
	out := Outcome{Correct: correct}
	if correct {
		out.Gain = domain.BasePoints * st.NeuralLoad
		st.Score += out.Gain
	}
	return st, out
}

func (standardRules) EvaluateAdvance(st State, total int) (State, Advance) {
	return advanceOrFinish(st, total)
}
