package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middleware touch.
type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]interface{}
}

func newMessageContext(updateID int, userID int64, text string) *fakeContext {
	user := &tele.User{ID: userID, Username: "tester"}
	return &fakeContext{
		update: tele.Update{ID: updateID, Message: &tele.Message{
			Sender: user,
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		}},
		store: map[string]interface{}{},
	}
}

func newCallbackContext(updateID int, userID int64, data string) *fakeContext {
	user := &tele.User{ID: userID}
	return &fakeContext{
		update: tele.Update{ID: updateID, Callback: &tele.Callback{
			Sender:  user,
			Data:    data,
			Message: &tele.Message{Chat: &tele.Chat{ID: userID}},
		}},
		store: map[string]interface{}{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.update.Callback != nil:
		return f.update.Callback.Sender
	case f.update.Message != nil:
		return f.update.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	switch {
	case f.update.Callback != nil && f.update.Callback.Message != nil:
		return f.update.Callback.Message.Chat
	case f.update.Message != nil:
		return f.update.Message.Chat
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, val interface{}) { f.store[key] = val }

func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }

func (f *fakeContext) Send(interface{}, ...interface{}) error { return nil }

func (f *fakeContext) EditOrSend(interface{}, ...interface{}) error { return nil }

func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		now:       func() time.Time { return now },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	_ = h(newMessageContext(1, 5, "hi"))
	now = now.Add(100 * time.Millisecond)
	_ = h(newMessageContext(2, 5, "hi again"))
	_ = h(newMessageContext(3, 6, "other user"))
	_ = h(newCallbackContext(4, 5, "\fqz_begin"))
	now = now.Add(2 * time.Second)
	_ = h(newMessageContext(5, 5, "later"))

	if handled != 4 {
		t.Fatalf("handled = %d, want 4", handled)
	}
	if limited != 1 {
		t.Fatalf("limited = %d, want 1", limited)
	}
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := newCallbackContext(42, 77, "\fqz_cat|23")
	err := LoggerMiddleware(func(c tele.Context) error {
		ctx, ok := tghelpers.ContextFrom(c)
		if !ok {
			t.Fatal("context not stored")
		}
		if got := logger.UserIDFrom(ctx); got != 77 {
			t.Fatalf("user id = %d", got)
		}
		if rid, _ := c.Get("rid").(string); rid == "" {
			t.Fatal("rid not set")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	err := RecoverMiddleware(func(tele.Context) error { panic("boom") })(newMessageContext(1, 1, "x"))
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}

	want := errors.New("plain")
	if got := RecoverMiddleware(func(tele.Context) error { return want })(newMessageContext(2, 1, "x")); !errors.Is(got, want) {
		t.Fatalf("err = %v", got)
	}
}

func TestMessageMetricsCounters(t *testing.T) {
	c := newCallbackContext(1, 1, "\fqz_ans|x.0")
	err := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{})
		_ = c.Respond(&tele.CallbackResponse{Text: "Invalid selection"})
		_ = c.EditOrSend("question", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
		return c.Send("plain")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := GetCounters(c)
	if got != (Counters{Messages: 2, Keyboard: true, Alerts: 1}) {
		t.Fatalf("counters = %+v", got)
	}
	if GetCounters(newMessageContext(2, 1, "x")) != (Counters{}) {
		t.Fatal("counters without middleware should be zero")
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Context{
		kindCommand:  newMessageContext(1, 1, "/start"),
		kindText:     newMessageContext(2, 1, "hello"),
		kindCallback: newCallbackContext(3, 1, "\fqz_begin"),
	}
	for want, c := range cases {
		if got := updateKind(c); got != want {
			t.Errorf("updateKind = %q, want %q", got, want)
		}
	}
}

func TestLoggerMiddlewareKeepsFirstContext(t *testing.T) {
	c := newMessageContext(9, 3, "/start")
	var first, second string
	h := LoggerMiddleware(func(c tele.Context) error {
		first, _ = c.Get("rid").(string)
		return LoggerMiddleware(func(c tele.Context) error {
			second, _ = c.Get("rid").(string)
			return nil
		})(c)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" || first != second {
		t.Fatalf("rid changed: %q -> %q", first, second)
	}
}
