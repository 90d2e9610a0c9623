// Package state keeps per-user conversation state and small scratch values.
// It knows nothing about the conversations themselves; callers define the states.
package state
