package cache

import (
	"strconv"
	"strings"
)

// GlobalKeyPrefix namespaces every key written by the bot.
const GlobalKeyPrefix = "quizbot"

// GenerateKey builds "quizbot:<objectType>:<identifier>[:<params joined by _>]".
func GenerateKey(objectType, identifier string, params ...string) string {
	key := strings.Join([]string{GlobalKeyPrefix, objectType, identifier}, ":")
	if len(params) > 0 {
		key += ":" + strings.Join(params, "_")
	}
	return key
}

// UserKey builds the key of a per-user object.
func UserKey(objectType string, userID int64) string {
	return GenerateKey(objectType, strconv.FormatInt(userID, 10))
}
