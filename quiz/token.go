package quiz

import (
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// TokenSource issues answer tokens for one displayed question.
// Tokens of one call must be unique and must not be reused by later calls.
type TokenSource interface {
	Tokens(n int) []string
}

// ULIDTokens derives tokens "<nonce>.<i>" from a fresh ULID per question.
type ULIDTokens struct{}

func (ULIDTokens) Tokens(n int) []string {
	nonce := strings.ToLower(ulid.Make().String())
	out := make([]string, n)
	for i := range out {
		out[i] = nonce + "." + strconv.Itoa(i)
	}
	return out
}
