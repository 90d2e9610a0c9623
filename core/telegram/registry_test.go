package telegram

import (
	"testing"

	"github.com/m3rciful/quizbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start a quiz"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, bad := range []struct {
		name string
		cmd  commands.Command
	}{
		{"start", commands.Command{Handler: noop, Description: "x"}},
		{"/start", commands.Command{Handler: noop, Description: "dup"}},
		{"/nodesc", commands.Command{Handler: noop}},
	} {
		if err := reg.RegisterCommand(bad.name, bad.cmd); err == nil {
			t.Fatalf("expected error registering %q", bad.name)
		}
	}

	menu := reg.ListCommands(true)
	if len(menu) != 2 || menu[0].Text != "cancel" || menu[1].Text != "start" {
		t.Fatalf("menu = %+v", menu)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all commands = %d", len(all))
	}

	for _, text := range []string{"/start", "/Start@quiz_bot", "/cancel now"} {
		if _, _, ok := reg.LookupCommand(text); !ok {
			t.Fatalf("LookupCommand(%q) not found", text)
		}
	}
	for _, text := range []string{"start", "", "/unknown", "hello /start"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Fatalf("LookupCommand(%q) unexpectedly found", text)
		}
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("qz_cat", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("qz_cat", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := reg.RegisterCallback("qz_ans", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
	if _, ok := reg.GetCallback("qz_cat"); !ok {
		t.Fatal("qz_cat not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "qz_cat" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("poller = %T, want *tele.Webhook", p)
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("webhook = %+v", wh)
	}

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if lp.Timeout.Seconds() != 10 {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}
