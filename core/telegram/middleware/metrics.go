package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "tg_counters"

// Counters describes what a handler sent back for one update.
type Counters struct {
	Messages int
	Keyboard bool
	// Alerts counts callback answers that carried a notice.
	Alerts int
}

// tally is written by dispatcher workers when sends are asynchronous.
type tally struct {
	messages atomic.Int64
	alerts   atomic.Int64
	keyboard atomic.Bool
}

type countingContext struct {
	tele.Context
	counters *tally
}

func (c countingContext) sent(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	c.counters.messages.Add(1)
	if hasMarkup(opts) {
		c.counters.keyboard.Store(true)
	}
	return nil
}

func hasMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	return c.sent(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Edit(what interface{}, opts ...interface{}) error {
	return c.sent(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return c.sent(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) Respond(resp ...*tele.CallbackResponse) error {
	err := c.Context.Respond(resp...)
	if err == nil && len(resp) > 0 && resp[0] != nil && resp[0].Text != "" {
		c.counters.alerts.Add(1)
	}
	return err
}

// MessageMetricsMiddleware counts replies produced while handling an update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &tally{}
		c.Set(countersKey, counters)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters returns the counters of the current update; zero without the middleware.
func GetCounters(c tele.Context) Counters {
	if t, ok := c.Get(countersKey).(*tally); ok && t != nil {
		return Counters{
			Messages: int(t.messages.Load()),
			Keyboard: t.keyboard.Load(),
			Alerts:   int(t.alerts.Load()),
		}
	}
	return Counters{}
}
