package domain

import "fmt"

// GameMode selects which scoring and progression rules apply to a session.
type GameMode string

const (
	ModeWipeout       GameMode = "WIPEOUT"
	ModeLightning     GameMode = "LIGHTNING"
	ModeMillionaire   GameMode = "MILLIONAIRE"
	ModeTeamBattle    GameMode = "TEAM_BATTLE"
	ModeGauntlet      GameMode = "GAUNTLET"
	ModeCategoryKings GameMode = "CATEGORY_KINGS"
)

// ParseMode maps a wire string to a GameMode.
func ParseMode(raw string) (GameMode, error) {
	switch GameMode(raw) {
	case ModeWipeout, ModeLightning, ModeMillionaire, ModeTeamBattle, ModeGauntlet, ModeCategoryKings:
		return GameMode(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// Timed reports whether the mode runs a countdown while awaiting an answer.
func (m GameMode) Timed() bool {
	return m == ModeLightning || m == ModeGauntlet
}

// Difficulty is the requested question difficulty band.
type Difficulty string

const (
	DifficultyFoundational Difficulty = "Foundational"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyScholastic   Difficulty = "Scholastic"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyExpert       Difficulty = "Expert"
)

// Question is a single fetched trivia question. Immutable once ingested.
type Question struct {
	ID                 string     `json:"id"`
	Subject            string     `json:"subject"`
	Difficulty         Difficulty `json:"difficulty"`
	Text               string     `json:"text"`
	Options            []string   `json:"options"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex"`
	Explanation        string     `json:"explanation"`
}

// Validate checks the structural contract: exactly 4 unique options and an
// in-range correct index. Malformed questions are rejected at ingestion.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty text (id=%s)", ErrMalformedQuestion, q.ID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: %d options (id=%s)", ErrMalformedQuestion, len(q.Options), q.ID)
	}
	seen := make(map[string]struct{}, OptionCount)
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q (id=%s)", ErrMalformedQuestion, opt, q.ID)
		}
		seen[opt] = struct{}{}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= OptionCount {
		return fmt.Errorf("%w: correct index %d (id=%s)", ErrMalformedQuestion, q.CorrectAnswerIndex, q.ID)
	}
	return nil
}

// ValidateBatch verifies a fetched batch before a session is allowed to
// start: exact size, every question well-formed, and for CategoryKings the
// 6-blocks-of-3 contiguous sub-category layout.
func ValidateBatch(mode GameMode, questions []Question, want int) error {
	if len(questions) == 0 {
		return ErrEmptyBatch
	}
	if len(questions) < want {
		return fmt.Errorf("%w: got %d, want %d", ErrShortBatch, len(questions), want)
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	if mode == ModeCategoryKings {
		return validateCategoryBlocks(questions)
	}
	return nil
}

func validateCategoryBlocks(questions []Question) error {
	if len(questions) < CategoryCount*CategoryBlockSize {
		return fmt.Errorf("%w: got %d, want %d", ErrShortBatch, len(questions), CategoryCount*CategoryBlockSize)
	}
	labels := make(map[string]struct{}, CategoryCount)
	for b := 0; b < CategoryCount; b++ {
		subject := questions[b*CategoryBlockSize].Subject
		if _, dup := labels[subject]; dup {
			return fmt.Errorf("%w: repeated sub-category %q", ErrMalformedQuestion, subject)
		}
		labels[subject] = struct{}{}
		for i := 1; i < CategoryBlockSize; i++ {
			if questions[b*CategoryBlockSize+i].Subject != subject {
				return fmt.Errorf("%w: block %d mixes subjects", ErrMalformedQuestion, b)
			}
		}
	}
	return nil
}

// GameSettings is the configuration fixed at session start.
type GameSettings struct {
	Mode       GameMode   `json:"mode"`
	Subject    string     `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	TeamCount  int        `json:"teamCount"`
}

// Team tracks one squad's tally in TeamBattle.
type Team struct {
	Name              string `json:"name"`
	Score             int    `json:"score"`
	ResponseTimeTotal int64  `json:"responseTimeTotal"` // milliseconds
	QuestionsAnswered int    `json:"questionsAnswered"`
}

// LifelineType names one of the three Millionaire aids.
type LifelineType string

const (
	LifelineFiftyFifty   LifelineType = "fiftyFifty"
	LifelineAudiencePoll LifelineType = "audiencePoll"
	LifelineExpertIntel  LifelineType = "expertIntel"
)

// Lifelines tracks availability; each flips true to false at most once.
type Lifelines struct {
	FiftyFifty   bool `json:"fiftyFifty"`
	AudiencePoll bool `json:"audiencePoll"`
	ExpertIntel  bool `json:"expertIntel"`
}

// SessionResult is the final, immutable outcome of a session.
type SessionResult struct {
	Score         int    `json:"score"`
	CorrectCount  int    `json:"correctCount"`
	TotalAnswered int    `json:"totalAnswered"`
	Success       bool   `json:"success"`
	TeamResults   []Team `json:"teamResults,omitempty"`
}

// UserStats is the aggregate record folded from session results.
type UserStats struct {
	ApexScore      int      `json:"apexScore"`
	TotalQuestions int      `json:"totalQuestions"`
	CorrectAnswers int      `json:"correctAnswers"`
	Accuracy       int      `json:"accuracy"`
	Milestones     []string `json:"milestones"`
}
