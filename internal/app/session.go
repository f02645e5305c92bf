package app

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nexus-arena-service/internal/domain"
	"nexus-arena-service/internal/engine"
)

// Phase is the session state machine position.
type Phase string

const (
	PhaseAwaitingAnswer Phase = "awaitingAnswer"
	PhaseResolving      Phase = "resolving"
	PhaseExplanation    Phase = "showingExplanation"
	PhaseTerminated     Phase = "terminated"
)

// Event is a presentation signal emitted to the injected sink.
type Event struct {
	SessionID string
	Type      string
}

const (
	EventSessionStarted  = "session.started"
	EventAnswerCorrect   = "answer.correct"
	EventAnswerWrong     = "answer.wrong"
	EventLifelineUsed    = "lifeline.used"
	EventSessionFinished = "session.finished"
	EventSessionAborted  = "session.aborted"
)

// EventSink receives presentation events (audio cues and the like) without
// the session knowing what consumes them.
type EventSink interface {
	Publish(event Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// SessionConfig carries everything a session needs at construction.
type SessionConfig struct {
	Settings  domain.GameSettings
	Questions []domain.Question

	// ResolveDelay separates "answer submitted" from "result visible".
	// Zero resolves synchronously.
	ResolveDelay time.Duration
	// ConfirmLifelines makes fiftyFifty and expertIntel two-step:
	// a repeated request commits the pending one.
	ConfirmLifelines bool
	// TickInterval overrides the 1s countdown cadence (tests only).
	TickInterval time.Duration

	Sink EventSink
	// OnFinish is invoked once with the final result on natural
	// termination. Aborted sessions never report.
	OnFinish func(sessionID string, res domain.SessionResult)

	Clock func() time.Time
	Rand  *rand.Rand
}

// Session drives one playthrough: question presentation, answer capture,
// lifeline resolution, and termination. All state transitions run under a
// single mutex; the countdown goroutine is the only background activity and
// its ticks re-check the phase under that same mutex, so a tick delivered
// after a transition out of AwaitingAnswer can never mutate state.
type Session struct {
	id        string
	settings  domain.GameSettings
	questions []domain.Question
	rules     engine.Rules
	total     int

	resolveDelay     time.Duration
	tickInterval     time.Duration
	confirmLifelines bool
	sink             EventSink
	onFinish         func(string, domain.SessionResult)
	now              func() time.Time
	rnd              *rand.Rand

	mu            sync.Mutex
	phase         Phase
	st            engine.State
	selected      int
	questionStart time.Time
	lifelines     domain.Lifelines
	disabled      []int
	poll          []int
	expertHint    string
	pendingAid    domain.LifelineType
	result        *domain.SessionResult
	timerStop     chan struct{}
	resolveTimer  *time.Timer
	subscribers   map[chan Snapshot]struct{}
}

// NewSession builds a session in AwaitingAnswer on the first question and,
// for timed modes, arms the countdown.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	st := engine.NewState(cfg.Settings)
	s := &Session{
		id:               uuid.NewString(),
		settings:         cfg.Settings,
		questions:        cfg.Questions,
		rules:            engine.ForMode(cfg.Settings.Mode),
		total:            engine.EffectiveTotal(st, len(cfg.Questions)),
		resolveDelay:     cfg.ResolveDelay,
		tickInterval:     cfg.TickInterval,
		confirmLifelines: cfg.ConfirmLifelines,
		sink:             cfg.Sink,
		onFinish:         cfg.OnFinish,
		now:              cfg.Clock,
		rnd:              cfg.Rand,
		phase:            PhaseAwaitingAnswer,
		st:               st,
		selected:         -1,
		subscribers:      make(map[chan Snapshot]struct{}),
	}
	if cfg.Settings.Mode == domain.ModeMillionaire {
		s.lifelines = domain.Lifelines{FiftyFifty: true, AudiencePoll: true, ExpertIntel: true}
	}
	s.questionStart = s.now()
	if cfg.Settings.Mode.Timed() {
		s.mu.Lock()
		s.armTimerLocked()
		s.mu.Unlock()
	}
	s.sink.Publish(Event{SessionID: s.id, Type: EventSessionStarted})
	return s
}

// ID returns the session handle.
func (s *Session) ID() string { return s.id }

// SubmitAnswer records exactly one answer for the current question.
// Re-entrant calls, out-of-range indexes, and picks of options hidden by
// fiftyFifty are silent no-ops.
func (s *Session) SubmitAnswer(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingAnswer || s.selected != -1 {
		return
	}
	if index < 0 || index >= domain.OptionCount {
		return
	}
	for _, d := range s.disabled {
		if d == index {
			return
		}
	}

	s.selected = index
	s.pendingAid = ""
	s.phase = PhaseResolving
	s.stopTimerLocked()

	elapsed := s.now().Sub(s.questionStart)
	if s.resolveDelay <= 0 {
		s.resolveLocked(elapsed)
		return
	}
	s.resolveTimer = time.AfterFunc(s.resolveDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.resolveLocked(elapsed)
	})
	s.broadcastLocked()
}

// resolveLocked commits the answer's scoring effect after the presentation
// delay has passed.
func (s *Session) resolveLocked(elapsed time.Duration) {
	if s.phase != PhaseResolving {
		return
	}
	q := s.questions[s.st.CurrentIndex]
	st, out := s.rules.EvaluateAnswer(s.st, q, s.selected, elapsed)
	s.st = st

	if out.Correct {
		s.sink.Publish(Event{SessionID: s.id, Type: EventAnswerCorrect})
	} else {
		s.sink.Publish(Event{SessionID: s.id, Type: EventAnswerWrong})
	}

	if out.Terminal != nil {
		s.terminateLocked(*out.Terminal)
		return
	}
	s.phase = PhaseExplanation
	s.broadcastLocked()
}

// Advance dismisses the current question's explanation. Depending on mode
// state it either moves to the next question or terminates the session.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseExplanation {
		return
	}

	st, adv := s.rules.EvaluateAdvance(s.st, s.total)
	s.st = st
	if adv.Terminal != nil {
		s.terminateLocked(*adv.Terminal)
		return
	}

	s.selected = -1
	s.disabled = nil
	s.poll = nil
	s.expertHint = ""
	s.pendingAid = ""
	s.questionStart = s.now()
	s.phase = PhaseAwaitingAnswer
	if s.settings.Mode.Timed() {
		s.armTimerLocked()
	}
	s.broadcastLocked()
}

// UseLifeline activates a Millionaire aid. Invalid use (wrong mode, already
// answered, already spent) is a silent no-op. With confirmation enabled,
// fiftyFifty and expertIntel need the same request twice: the first marks it
// pending, the second commits.
func (s *Session) UseLifeline(kind domain.LifelineType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingAnswer || s.selected != -1 {
		return
	}
	if s.settings.Mode != domain.ModeMillionaire {
		return
	}
	if !s.lifelineAvailableLocked(kind) {
		return
	}
	if s.confirmLifelines && kind != domain.LifelineAudiencePoll && s.pendingAid != kind {
		s.pendingAid = kind
		s.broadcastLocked()
		return
	}
	s.pendingAid = ""

	q := s.questions[s.st.CurrentIndex]
	switch kind {
	case domain.LifelineFiftyFifty:
		s.lifelines.FiftyFifty = false
		s.disabled = s.drawDisabled(q)
	case domain.LifelineAudiencePoll:
		s.lifelines.AudiencePoll = false
		s.poll = s.drawPoll(q)
	case domain.LifelineExpertIntel:
		s.lifelines.ExpertIntel = false
		s.expertHint = "High probability detected for: " + strings.ToUpper(q.Options[q.CorrectAnswerIndex])
	default:
		return
	}
	s.sink.Publish(Event{SessionID: s.id, Type: EventLifelineUsed})
	s.broadcastLocked()
}

func (s *Session) lifelineAvailableLocked(kind domain.LifelineType) bool {
	switch kind {
	case domain.LifelineFiftyFifty:
		return s.lifelines.FiftyFifty
	case domain.LifelineAudiencePoll:
		return s.lifelines.AudiencePoll
	case domain.LifelineExpertIntel:
		return s.lifelines.ExpertIntel
	}
	return false
}

// drawDisabled picks 2 of the 3 incorrect options uniformly at random.
func (s *Session) drawDisabled(q domain.Question) []int {
	wrong := make([]int, 0, domain.OptionCount-1)
	for i := 0; i < domain.OptionCount; i++ {
		if i != q.CorrectAnswerIndex {
			wrong = append(wrong, i)
		}
	}
	s.rnd.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	return wrong[:2]
}

// drawPoll synthesizes a crowd distribution: the correct option lands in
// [60,74] and the remainder is spread over the wrong options, with the last
// one absorbing whatever is left so the four entries sum to exactly 100.
func (s *Session) drawPoll(q domain.Question) []int {
	poll := make([]int, domain.OptionCount)
	poll[q.CorrectAnswerIndex] = 60 + s.rnd.Intn(15)
	rem := 100 - poll[q.CorrectAnswerIndex]

	wrong := make([]int, 0, domain.OptionCount-1)
	for i := 0; i < domain.OptionCount; i++ {
		if i != q.CorrectAnswerIndex {
			wrong = append(wrong, i)
		}
	}
	for n, i := range wrong {
		if n == len(wrong)-1 {
			poll[i] = rem
			break
		}
		max := rem * 2 / 3
		val := 0
		if max > 0 {
			val = s.rnd.Intn(max)
		}
		poll[i] = val
		rem -= val
	}
	return poll
}

// Abort halts the session, cancels the timer, and discards state without
// reporting a result.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseTerminated {
		return
	}
	s.phase = PhaseTerminated
	s.stopTimerLocked()
	if s.resolveTimer != nil {
		s.resolveTimer.Stop()
		s.resolveTimer = nil
	}
	s.sink.Publish(Event{SessionID: s.id, Type: EventSessionAborted})
	s.broadcastLocked()
	s.closeSubscribersLocked()
}

// Result returns the final outcome, or nil while the session is live or
// after an abort.
func (s *Session) Result() *domain.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	res := *s.result
	return &res
}

func (s *Session) terminateLocked(res domain.SessionResult) {
	s.phase = PhaseTerminated
	s.stopTimerLocked()
	s.result = &res
	s.sink.Publish(Event{SessionID: s.id, Type: EventSessionFinished})
	if s.onFinish != nil {
		// Must not call back into this session.
		s.onFinish(s.id, res)
	}
	s.broadcastLocked()
	s.closeSubscribersLocked()
}

// Countdown plumbing. The stop channel is replaced on every arm and closed
// under the mutex on every transition out of AwaitingAnswer, so disarming
// is synchronous with the transition.

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	stop := make(chan struct{})
	s.timerStop = stop
	go s.runTimer(stop)
}

func (s *Session) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

func (s *Session) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.tick() {
				return
			}
		}
	}
}

// tick decrements the countdown; reaching zero takes the timeout path. The
// return value tells the timer goroutine to quit.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingAnswer {
		return true
	}
	s.st.TimeLeft--
	if s.st.TimeLeft > 0 {
		s.broadcastLocked()
		return false
	}
	s.st.TimeLeft = 0
	s.terminateLocked(engine.EvaluateTimeout(s.st))
	return true
}
