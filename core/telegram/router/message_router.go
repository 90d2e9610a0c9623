package router

import (
	"time"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextRoute handles plain text: command-like text the Telebot router did not
// match goes to the command, everything else to the registry's text fallback.
func TextRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
			return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
				return cmd.Handler(c)
			})
		}

		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "fallback", start, func() error {
				return fb(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
