package quiz

import (
	"context"
	"errors"
)

// QuestionSource fetches a batch of questions for a category and difficulty.
// Failures should be reported as *Error with CodeSourceUnavailable.
type QuestionSource interface {
	Fetch(ctx context.Context, categoryID int, d Difficulty) ([]Question, error)
}

// ErrSessionNotFound is returned by SessionRepository when the user has no session.
var ErrSessionNotFound = errors.New("quiz: session not found")

// SessionRepository keeps at most one session per user. Implementations must
// be safe for concurrent use across users.
type SessionRepository interface {
	// Create stores s, replacing any previous session of s.UserID.
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, userID int64) (*Session, error)
	// Update applies fn to a copy of the session and stores it only if fn succeeds.
	Update(ctx context.Context, userID int64, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, userID int64) error
}
