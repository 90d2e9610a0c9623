// Package bot adapts the quiz machine to Telegram commands and buttons.
package bot

import (
	"errors"
	"fmt"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	"github.com/m3rciful/quizbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/ui"
	"github.com/m3rciful/quizbot/quiz"

	tele "gopkg.in/telebot.v4"
)

// Handlers routes Telegram updates into a quiz.Machine.
type Handlers struct {
	machine *quiz.Machine
}

var _ ui.FallbackProvider = (*Handlers)(nil)

// New returns handlers bound to m.
func New(m *quiz.Machine) *Handlers {
	return &Handlers{machine: m}
}

// Register adds the quiz commands, button callbacks and fallbacks to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	var errs []error
	errs = append(errs,
		reg.RegisterCommand("/start", commands.Command{
			Handler:     h.event(quiz.EventStart),
			Description: "Start the quiz game! 🎮",
		}),
		reg.RegisterCommand("/cancel", commands.Command{
			Handler:     h.event(quiz.EventCancel),
			Description: "Cancel the current quiz",
		}),
	)

	buttons := map[string]quiz.EventKind{
		UniqueBegin:      quiz.EventBegin,
		UniqueCategory:   quiz.EventCategory,
		UniqueDifficulty: quiz.EventDifficulty,
		UniqueAnswer:     quiz.EventAnswer,
		UniquePlayAgain:  quiz.EventPlayAgain,
		UniqueExit:       quiz.EventExit,
	}
	for unique, kind := range buttons {
		errs = append(errs, reg.RegisterCallback(unique, h.event(kind)))
	}

	reg.SetTextFallback(h.UnknownText())
	reg.SetCallbackNotFound(h.UnknownCallback())
	return errors.Join(errs...)
}

// UnknownText restarts the conversation on free text.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return h.event(quiz.EventText)
}

// UnknownCallback rejects buttons the bot no longer knows about.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: alertStale, ShowAlert: true})
	}
}

// OnRateLimited tells a throttled user why their press did nothing.
func (h *Handlers) OnRateLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: alertRateLimited})
}

func (h *Handlers) event(kind quiz.EventKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil {
			return nil
		}
		ev := quiz.Event{Kind: kind}
		if c.Callback() != nil {
			ev.Value = callbacks.CallbackPayload(c)
		}
		ctx := tghelpers.BuildContext(c)

		if kind == quiz.EventDifficulty {
			_ = tghelpers.Typing(c)
		}

		reply, err := h.machine.Handle(ctx, user.ID, ev)
		if err != nil {
			if c.Callback() != nil {
				_ = c.Respond(&tele.CallbackResponse{Text: alertInternal})
			}
			return fmt.Errorf("quiz %s: %w", kind, err)
		}

		view := Render(reply)
		if c.Callback() != nil {
			resp := &tele.CallbackResponse{}
			if view.Alert != "" {
				resp.Text = view.Alert
				resp.ShowAlert = reply.Screen == quiz.ScreenNone
			}
			_ = c.Respond(resp)
		}
		switch {
		case view.Text == "":
			return nil
		case c.Callback() != nil:
			return tghelpers.EditOrSendMD(c, view.Text, view.Markup)
		}
		return tghelpers.SendMD(c, view.Text, view.Markup)
	}
}
