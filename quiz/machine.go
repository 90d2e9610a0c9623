package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/state"
)

const tempCategory = "category"

// Screen tells the presentation layer what to show.
type Screen string

const (
	// ScreenNone leaves the current message as is; Reply.Notice explains why.
	ScreenNone       Screen = ""
	ScreenWelcome    Screen = "welcome"
	ScreenCategories Screen = "categories"
	ScreenDifficulty Screen = "difficulty"
	ScreenQuestion   Screen = "question"
	ScreenFinished   Screen = "finished"
	ScreenCancelled  Screen = "cancelled"
	ScreenGoodbye    Screen = "goodbye"
	ScreenFailure    Screen = "failure"
)

// Event is an inbound user action. Value carries the category id,
// difficulty name or answer token for the matching kinds.
type Event struct {
	Kind  EventKind
	Value string
}

// Feedback reports how the previous answer was scored.
type Feedback struct {
	Correct bool
	Answer  string
}

// Reply is the machine's answer to one event.
type Reply struct {
	Screen Screen
	State  state.State
	Notice *Error

	Categories   []Category
	Category     Category
	Difficulties []Difficulty
	Question     *QuestionView
	Feedback     *Feedback
	Score        int
	Total        int
}

// Options configures NewMachine. Sessions, States and Source are required.
type Options struct {
	Sessions SessionRepository
	States   state.Manager
	Source   QuestionSource
	// Tokens defaults to ULIDTokens.
	Tokens TokenSource
	// Categories defaults to every category.
	Categories []Category
	Now        func() time.Time
}

// Machine drives the quiz conversation of every user.
type Machine struct {
	sessions   SessionRepository
	states     state.Manager
	source     QuestionSource
	tokens     TokenSource
	categories []Category
	now        func() time.Time
	users      *userLocks
}

// NewMachine builds a Machine from opts.
func NewMachine(opts Options) *Machine {
	m := &Machine{
		sessions:   opts.Sessions,
		states:     opts.States,
		source:     opts.Source,
		tokens:     opts.Tokens,
		categories: opts.Categories,
		now:        opts.Now,
		users:      newUserLocks(),
	}
	if m.tokens == nil {
		m.tokens = ULIDTokens{}
	}
	if len(m.categories) == 0 {
		m.categories = Categories()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Categories returns the selectable categories.
func (m *Machine) Categories() []Category {
	return m.categories
}

// Handle applies ev for userID and returns what to show next.
// User mistakes come back as Reply.Notice; the error is reserved for storage failures.
// Events of one user are applied one at a time, so a repeated press sees the
// state left by the first one.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) (Reply, error) {
	start := time.Now()
	defer m.users.lock(userID)()
	from, err := m.states.GetState(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("quiz: load state: %w", err)
	}

	if !Accepts(from, ev.Kind) {
		m.logTransition(ctx, from, from, ev, OutcomeRejected, start, ErrStaleSelection)
		return Reply{State: from, Notice: ErrStaleSelection}, nil
	}

	var (
		reply   Reply
		outcome Outcome
	)
	switch ev.Kind {
	case EventStart, EventText:
		reply, outcome, err = m.restart(ctx, userID, ScreenWelcome)
	case EventCancel:
		reply, outcome, err = m.restart(ctx, userID, ScreenCancelled)
	case EventExit:
		reply, outcome, err = m.restart(ctx, userID, ScreenGoodbye)
	case EventPlayAgain:
		reply, outcome, err = m.restart(ctx, userID, ScreenCategories)
	case EventBegin:
		reply, outcome = Reply{Screen: ScreenCategories}, OutcomeAdvanced
	case EventCategory:
		reply, outcome, err = m.selectCategory(ctx, userID, ev.Value)
	case EventDifficulty:
		reply, outcome, err = m.selectDifficulty(ctx, userID, ev.Value)
	case EventAnswer:
		reply, outcome, err = m.answer(ctx, userID, ev.Value)
	}
	if err != nil {
		return Reply{}, err
	}

	to, ok := Transition(from, ev.Kind, outcome)
	if !ok {
		return Reply{}, newError(CodeUnexpectedEvent, fmt.Sprintf("no transition from %s on %s/%s", from, ev.Kind, outcome), nil)
	}
	if to == StateEnded {
		err = m.states.Clear(ctx, userID)
	} else {
		err = m.states.SetState(ctx, userID, to)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("quiz: save state: %w", err)
	}

	reply.State = to
	if reply.Screen == ScreenCategories {
		reply.Categories = m.categories
	}
	m.logTransition(ctx, from, to, ev, outcome, start, reply.Notice)
	return reply, nil
}

// restart discards the session and conversation data.
func (m *Machine) restart(ctx context.Context, userID int64, screen Screen) (Reply, Outcome, error) {
	if err := m.sessions.Delete(ctx, userID); err != nil {
		return Reply{}, "", fmt.Errorf("quiz: delete session: %w", err)
	}
	if err := m.states.Clear(ctx, userID); err != nil {
		return Reply{}, "", fmt.Errorf("quiz: clear state: %w", err)
	}
	return Reply{Screen: screen}, OutcomeAdvanced, nil
}

func (m *Machine) selectCategory(ctx context.Context, userID int64, value string) (Reply, Outcome, error) {
	id, err := strconv.Atoi(value)
	if err != nil {
		return Reply{Notice: ErrStaleSelection}, OutcomeRejected, nil
	}
	cat, ok := CategoryByID(m.categories, id)
	if !ok {
		return Reply{Notice: ErrStaleSelection}, OutcomeRejected, nil
	}
	if err := state.SetTempInt64(ctx, m.states, userID, tempCategory, int64(cat.ID)); err != nil {
		return Reply{}, "", fmt.Errorf("quiz: save category: %w", err)
	}
	return Reply{
		Screen:       ScreenDifficulty,
		Category:     cat,
		Difficulties: Difficulties(),
	}, OutcomeAdvanced, nil
}

func (m *Machine) selectDifficulty(ctx context.Context, userID int64, value string) (Reply, Outcome, error) {
	d, ok := ParseDifficulty(value)
	if !ok {
		return Reply{Notice: ErrStaleSelection}, OutcomeRejected, nil
	}
	catID, ok, err := state.GetTempInt64(ctx, m.states, userID, tempCategory)
	if err != nil {
		return Reply{}, "", fmt.Errorf("quiz: load category: %w", err)
	}
	if !ok {
		return Reply{Screen: ScreenFailure, Notice: ErrMissingPrecondition}, OutcomeFailed, nil
	}
	cat, _ := CategoryByID(Categories(), int(catID))

	questions, err := m.source.Fetch(ctx, cat.ID, d)
	if err == nil && len(questions) == 0 {
		err = errors.New("empty question batch")
	}
	if err != nil {
		var qe *Error
		if !errors.As(err, &qe) {
			qe = SourceUnavailable(err)
		}
		return Reply{Screen: ScreenFailure, Category: cat, Notice: qe}, OutcomeFailed, nil
	}

	s := NewSession(userID, cat.ID, d, questions, m.now())
	view, _ := s.Present(m.tokens)
	if err := m.sessions.Create(ctx, s); err != nil {
		return Reply{}, "", fmt.Errorf("quiz: create session: %w", err)
	}
	return Reply{
		Screen:   ScreenQuestion,
		Category: cat,
		Question: &view,
		Total:    s.Total(),
	}, OutcomeAdvanced, nil
}

func (m *Machine) answer(ctx context.Context, userID int64, token string) (Reply, Outcome, error) {
	var (
		res     AnswerResult
		view    QuestionView
		hasNext bool
	)
	s, err := m.sessions.Update(ctx, userID, func(s *Session) error {
		r, err := s.Answer(token)
		if err != nil {
			return err
		}
		res = r
		view, hasNext = s.Present(m.tokens)
		return nil
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return Reply{Screen: ScreenFailure, Notice: ErrMissingPrecondition}, OutcomeFailed, nil
	case errors.Is(err, ErrStaleSelection):
		return Reply{Notice: ErrStaleSelection}, OutcomeRejected, nil
	case err != nil:
		return Reply{}, "", fmt.Errorf("quiz: update session: %w", err)
	}

	reply := Reply{
		Feedback: &Feedback{Correct: res.Correct, Answer: res.CorrectAnswer},
		Score:    s.Score,
		Total:    s.Total(),
	}
	if hasNext {
		reply.Screen = ScreenQuestion
		reply.Question = &view
		return reply, OutcomeAdvanced, nil
	}
	reply.Screen = ScreenFinished
	return reply, OutcomeCompleted, nil
}

func (m *Machine) logTransition(ctx context.Context, from, to state.State, ev Event, outcome Outcome, start time.Time, notice *Error) {
	attrs := []slog.Attr{
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("quiz_event", string(ev.Kind)),
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", logger.Took(start)),
	}
	if notice != nil {
		attrs = append(attrs, slog.String("err_code", notice.Code()))
		if notice.Err != nil {
			attrs = append(attrs, slog.String("err", notice.Err.Error()))
		}
	}
	level := slog.LevelInfo
	if outcome == OutcomeFailed {
		level = slog.LevelWarn
	}
	logger.Event(ctx, "quiz", level, "quiz.transition", attrs...)
}
