package quiz

import "github.com/m3rciful/quizbot/core/state"

// Conversation states. StateEnded is the absence of a conversation.
const (
	StateEnded               = state.StateIdle
	StateSelectingCategory   state.State = "selecting_category"
	StateSelectingDifficulty state.State = "selecting_difficulty"
	StateQuiz                state.State = "quiz"
)

// EventKind names an inbound user action.
type EventKind string

const (
	EventStart      EventKind = "start"
	EventText       EventKind = "text"
	EventCancel     EventKind = "cancel"
	EventBegin      EventKind = "begin"
	EventCategory   EventKind = "category"
	EventDifficulty EventKind = "difficulty"
	EventAnswer     EventKind = "answer"
	EventPlayAgain  EventKind = "play_again"
	EventExit       EventKind = "exit"
)

// Outcome is the result of performing an event's action.
type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeCompleted Outcome = "completed"
)

var outcomes = []Outcome{OutcomeAdvanced, OutcomeRejected, OutcomeFailed, OutcomeCompleted}

const anyState state.State = "*"

type transitionKey struct {
	from    state.State
	event   EventKind
	outcome Outcome
}

var transitions = map[transitionKey]state.State{
	{anyState, EventStart, OutcomeAdvanced}:  StateSelectingCategory,
	{anyState, EventText, OutcomeAdvanced}:   StateSelectingCategory,
	{anyState, EventCancel, OutcomeAdvanced}: StateEnded,

	{StateSelectingCategory, EventBegin, OutcomeAdvanced}:     StateSelectingCategory,
	{StateSelectingCategory, EventCategory, OutcomeAdvanced}:  StateSelectingDifficulty,
	{StateSelectingCategory, EventCategory, OutcomeRejected}:  StateSelectingCategory,
	{StateSelectingCategory, EventPlayAgain, OutcomeAdvanced}: StateSelectingCategory,
	{StateSelectingCategory, EventExit, OutcomeAdvanced}:      StateEnded,

	{StateSelectingDifficulty, EventDifficulty, OutcomeAdvanced}: StateQuiz,
	{StateSelectingDifficulty, EventDifficulty, OutcomeRejected}: StateSelectingDifficulty,
	{StateSelectingDifficulty, EventDifficulty, OutcomeFailed}:   StateEnded,

	{StateQuiz, EventAnswer, OutcomeAdvanced}:  StateQuiz,
	{StateQuiz, EventAnswer, OutcomeRejected}:  StateQuiz,
	{StateQuiz, EventAnswer, OutcomeCompleted}: StateSelectingCategory,
	{StateQuiz, EventAnswer, OutcomeFailed}:    StateEnded,
}

// Transition returns the state reached from `from` when event produced outcome.
func Transition(from state.State, event EventKind, outcome Outcome) (state.State, bool) {
	if to, ok := transitions[transitionKey{from, event, outcome}]; ok {
		return to, true
	}
	to, ok := transitions[transitionKey{anyState, event, outcome}]
	return to, ok
}

// Accepts reports whether event is meaningful in state `from`.
func Accepts(from state.State, event EventKind) bool {
	for _, o := range outcomes {
		if _, ok := Transition(from, event, o); ok {
			return true
		}
	}
	return false
}
