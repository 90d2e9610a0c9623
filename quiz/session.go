package quiz

import "time"

// Session is one user's quiz in progress.
// Invariant: 0 <= Score <= Index <= len(Questions).
type Session struct {
	UserID     int64      `json:"user_id"`
	CategoryID int        `json:"category_id"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
	Index      int        `json:"index"`
	Score      int        `json:"score"`
	// AnswerMap resolves the tokens of the question currently shown.
	AnswerMap map[string]string `json:"answer_map,omitempty"`
	StartedAt time.Time         `json:"started_at"`
}

// Choice is one answer button.
type Choice struct {
	Token string
	Text  string
}

// QuestionView is the displayable form of the current question.
type QuestionView struct {
	Number  int
	Total   int
	Prompt  string
	Choices []Choice
}

// AnswerResult describes how an accepted answer was scored.
type AnswerResult struct {
	Chosen        string
	CorrectAnswer string
	Correct       bool
}

// NewSession starts a quiz at question 0 with a zero score.
func NewSession(userID int64, categoryID int, d Difficulty, questions []Question, now time.Time) *Session {
	return &Session{
		UserID:     userID,
		CategoryID: categoryID,
		Difficulty: d,
		Questions:  questions,
		StartedAt:  now,
	}
}

func (s *Session) Total() int { return len(s.Questions) }

// Finished reports whether every question has been answered.
func (s *Session) Finished() bool { return s.Index >= len(s.Questions) }

// Current returns the question awaiting an answer.
func (s *Session) Current() (Question, bool) {
	if s.Finished() {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Present issues fresh tokens for the current question and replaces AnswerMap,
// invalidating every token handed out before.
func (s *Session) Present(tokens TokenSource) (QuestionView, bool) {
	q, ok := s.Current()
	if !ok {
		s.AnswerMap = nil
		return QuestionView{}, false
	}
	keys := tokens.Tokens(len(q.Options))
	s.AnswerMap = make(map[string]string, len(q.Options))
	choices := make([]Choice, len(q.Options))
	for i, opt := range q.Options {
		s.AnswerMap[keys[i]] = opt
		choices[i] = Choice{Token: keys[i], Text: opt}
	}
	return QuestionView{
		Number:  s.Index + 1,
		Total:   s.Total(),
		Prompt:  q.Prompt,
		Choices: choices,
	}, true
}

// Answer scores the option behind token and moves to the next question.
// Unknown tokens return ErrStaleSelection and leave the session untouched.
func (s *Session) Answer(token string) (AnswerResult, error) {
	q, ok := s.Current()
	if !ok {
		return AnswerResult{}, ErrStaleSelection
	}
	chosen, ok := s.AnswerMap[token]
	if !ok {
		return AnswerResult{}, ErrStaleSelection
	}
	res := AnswerResult{Chosen: chosen, CorrectAnswer: q.Correct, Correct: chosen == q.Correct}
	if res.Correct {
		s.Score++
	}
	s.Index++
	s.AnswerMap = nil
	return res, nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	if s.AnswerMap != nil {
		out.AnswerMap = make(map[string]string, len(s.AnswerMap))
		for k, v := range s.AnswerMap {
			out.AnswerMap[k] = v
		}
	}
	return &out
}
