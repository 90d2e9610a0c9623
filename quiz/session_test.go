package quiz

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/state"
)

type seqTokens struct{ n int }

func (s *seqTokens) Tokens(n int) []string {
	s.n++
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d.%d", s.n, i)
	}
	return out
}

func tenQuestions() []Question {
	qs := make([]Question, QuestionsPerQuiz)
	for i := range qs {
		correct := fmt.Sprintf("right-%d", i)
		qs[i] = Question{
			Prompt:  fmt.Sprintf("Question %d?", i),
			Correct: correct,
			Options: []string{"wrong-a", correct, "wrong-b", "wrong-c"},
		}
	}
	return qs
}

func tokenFor(t *testing.T, view QuestionView, text string) string {
	t.Helper()
	for _, c := range view.Choices {
		if c.Text == text {
			return c.Token
		}
	}
	t.Fatalf("option %q not offered", text)
	return ""
}

func TestSessionPresentBuildsAnswerMap(t *testing.T) {
	s := NewSession(1, 23, DifficultyEasy, tenQuestions(), time.Now())
	view, ok := s.Present(&seqTokens{})
	require.True(t, ok)

	assert.Equal(t, 1, view.Number)
	assert.Equal(t, 10, view.Total)
	require.Len(t, s.AnswerMap, len(s.Questions[0].Options))

	seen := map[string]int{}
	for _, text := range s.AnswerMap {
		seen[text]++
	}
	for _, opt := range s.Questions[0].Options {
		assert.Equal(t, 1, seen[opt], opt)
	}
}

func TestSessionAnswerRejectsStaleTokens(t *testing.T) {
	tokens := &seqTokens{}
	s := NewSession(1, 23, DifficultyEasy, tenQuestions(), time.Now())
	first, _ := s.Present(tokens)
	oldToken := tokenFor(t, first, "right-0")

	_, err := s.Answer("bogus")
	require.ErrorIs(t, err, ErrStaleSelection)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 0, s.Score)

	res, err := s.Answer(oldToken)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 1, s.Score)

	// the same press again, before and after the next question is shown
	_, err = s.Answer(oldToken)
	require.ErrorIs(t, err, ErrStaleSelection)
	s.Present(tokens)
	_, err = s.Answer(oldToken)
	require.ErrorIs(t, err, ErrStaleSelection)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 1, s.Score)
}

func TestSessionScoreBounds(t *testing.T) {
	tokens := &seqTokens{}
	s := NewSession(1, 9, DifficultyHard, tenQuestions(), time.Now())
	for i := 0; !s.Finished(); i++ {
		view, ok := s.Present(tokens)
		require.True(t, ok)
		pick := "wrong-a"
		if i%2 == 0 {
			pick = fmt.Sprintf("right-%d", i)
		}
		res, err := s.Answer(tokenFor(t, view, pick))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("right-%d", i), res.CorrectAnswer)
		assert.True(t, 0 <= s.Score && s.Score <= s.Index && s.Index <= s.Total())
	}
	assert.Equal(t, 5, s.Score)
	_, ok := s.Present(tokens)
	assert.False(t, ok)
	assert.Nil(t, s.AnswerMap)
	_, err := s.Answer("t1.0")
	require.ErrorIs(t, err, ErrStaleSelection)
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession(1, 9, DifficultyHard, tenQuestions(), time.Now())
	s.Present(&seqTokens{})
	c := s.Clone()
	c.Questions[0].Options[0] = "changed"
	for k := range c.AnswerMap {
		c.AnswerMap[k] = "changed"
	}
	assert.Equal(t, "wrong-a", s.Questions[0].Options[0])
	for _, v := range s.AnswerMap {
		assert.NotEqual(t, "changed", v)
	}
}

func TestULIDTokensUnique(t *testing.T) {
	var src ULIDTokens
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		for _, tok := range src.Tokens(4) {
			require.False(t, seen[tok], tok)
			seen[tok] = true
			assert.LessOrEqual(t, len(tok), 40)
		}
	}
}

func TestCategoriesAndDifficulties(t *testing.T) {
	all := Categories()
	require.Len(t, all, 13)
	assert.Equal(t, Category{ID: 9, Name: "General Knowledge"}, all[0])
	assert.Equal(t, Category{ID: 25, Name: "Art"}, all[12])

	assert.Len(t, VisibleCategories(0), 13)
	assert.Len(t, VisibleCategories(10), 10)
	assert.Len(t, VisibleCategories(50), 13)

	c, ok := CategoryByID(all, 23)
	assert.True(t, ok)
	assert.Equal(t, "History", c.Name)
	_, ok = CategoryByID(VisibleCategories(10), 24)
	assert.False(t, ok)

	d, ok := ParseDifficulty(" Medium ")
	assert.True(t, ok)
	assert.Equal(t, DifficultyMedium, d)
	assert.Equal(t, "Medium", d.Label())
	_, ok = ParseDifficulty("insane")
	assert.False(t, ok)
}

func TestErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", SourceUnavailable(fmt.Errorf("dial tcp: timeout")))
	assert.ErrorIs(t, wrapped, ErrSourceUnavailable)
	assert.NotErrorIs(t, wrapped, ErrStaleSelection)
	assert.Equal(t, "source_unavailable", ErrSourceUnavailable.Code())
	assert.Contains(t, wrapped.Error(), "dial tcp")
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    string
		event   EventKind
		outcome Outcome
		to      string
		ok      bool
	}{
		{"idle", EventStart, OutcomeAdvanced, "selecting_category", true},
		{"quiz", EventText, OutcomeAdvanced, "selecting_category", true},
		{"selecting_difficulty", EventCancel, OutcomeAdvanced, "idle", true},
		{"selecting_category", EventCategory, OutcomeAdvanced, "selecting_difficulty", true},
		{"selecting_difficulty", EventDifficulty, OutcomeFailed, "idle", true},
		{"selecting_difficulty", EventDifficulty, OutcomeAdvanced, "quiz", true},
		{"quiz", EventAnswer, OutcomeRejected, "quiz", true},
		{"quiz", EventAnswer, OutcomeCompleted, "selecting_category", true},
		{"selecting_category", EventExit, OutcomeAdvanced, "idle", true},
		{"selecting_category", EventAnswer, OutcomeAdvanced, "", false},
		{"idle", EventBegin, OutcomeAdvanced, "", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%s", tt.from, tt.event, tt.outcome), func(t *testing.T) {
			to, ok := Transition(state.State(tt.from), tt.event, tt.outcome)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.to, string(to))
		})
	}

	assert.True(t, Accepts(StateQuiz, EventAnswer))
	assert.False(t, Accepts(StateQuiz, EventCategory))
	assert.True(t, Accepts(StateEnded, EventCancel))
}

func TestUserLocksReleaseEntries(t *testing.T) {
	l := newUserLocks()
	unlock := l.lock(1)
	done := make(chan struct{})
	go func() {
		l.lock(1)()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("second lock of the same user must wait")
	case <-time.After(20 * time.Millisecond):
	}
	l.lock(2)()
	unlock()
	<-done
	assert.Empty(t, l.locks)
}
