package middleware

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Update kinds reported in update.received.
const (
	kindCommand  = "command"
	kindCallback = "callback"
	kindText     = "text"
	kindOther    = "other"
)

func updateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return kindCallback
	case upd.Message != nil && strings.HasPrefix(c.Text(), "/"):
		return kindCommand
	case upd.Message != nil:
		return kindText
	}
	return kindOther
}

// LoggerMiddleware assigns the rid of an update, stores the logging context
// for handlers, and logs a sampled update.received line. Running it twice on
// one update is a no-op the second time.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		c.Set("rid", logger.BuildRID(c.Update().ID, chatID, userID))
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receivedAttrs(c)...)
		}
		return next(c)
	}
}

func receivedAttrs(c tele.Context) []slog.Attr {
	kind := updateKind(c)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", kind),
	}
	if chat := c.Chat(); chat != nil && chat.Type != "" {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", user.LanguageCode))
	}

	switch kind {
	case kindCallback:
		key, payload := callbacks.ParseCallbackData(c.Callback())
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 64)))
		}
	case kindCommand:
		cmd, _, _ := strings.Cut(c.Text(), " ")
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(cmd, 64)))
	case kindText:
		// Free text is user content; only its size is logged.
		attrs = append(attrs, slog.Int("text_len", len(c.Text())))
	}
	return attrs
}
