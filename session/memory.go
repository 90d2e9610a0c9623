package session

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/quiz"
)

type memoryEntry struct {
	session *quiz.Session
	touched time.Time
}

// MemoryRepository keeps sessions in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]memoryEntry
}

var _ quiz.SessionRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository. A positive ttl drops
// sessions that were not written for that long.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]memoryEntry),
	}
}

// lookup returns the live session; callers hold mu.
func (r *MemoryRepository) lookup(userID int64) (*quiz.Session, bool) {
	e, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && r.now().Sub(e.touched) > r.ttl {
		delete(r.sessions, userID)
		return nil, false
	}
	return e.session, true
}

func (r *MemoryRepository) Create(_ context.Context, s *quiz.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UserID] = memoryEntry{session: s.Clone(), touched: r.now()}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, userID int64) (*quiz.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.lookup(userID)
	if !ok {
		return nil, quiz.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, userID int64, fn func(*quiz.Session) error) (*quiz.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.lookup(userID)
	if !ok {
		return nil, quiz.ErrSessionNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.sessions[userID] = memoryEntry{session: next, touched: r.now()}
	return next.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
