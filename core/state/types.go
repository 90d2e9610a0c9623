package state

import (
	"context"
	"strconv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State    State
	TempData map[string]string
}

// Manager stores conversation state per user. Implementations must be safe
// for concurrent use by handlers serving different users.
type Manager interface {
	GetState(ctx context.Context, userID int64) (State, error)
	SetState(ctx context.Context, userID int64, st State) error
	SetTemp(ctx context.Context, userID int64, key, value string) error
	GetTemp(ctx context.Context, userID int64, key string) (string, bool, error)
	// Clear drops the state and all temporary data for the user.
	Clear(ctx context.Context, userID int64) error
}

// GetTempInt64 reads a temporary value and parses it as int64.
// A value that does not parse is reported as absent.
func GetTempInt64(ctx context.Context, m Manager, userID int64, key string) (int64, bool, error) {
	raw, ok, err := m.GetTemp(ctx, userID, key)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

// SetTempInt64 stores an int64 temporary value.
func SetTempInt64(ctx context.Context, m Manager, userID int64, key string, value int64) error {
	return m.SetTemp(ctx, userID, key, strconv.FormatInt(value, 10))
}
