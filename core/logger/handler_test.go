package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "quiz")
	LogEvent(ctx, log, slog.LevelInfo, "quiz.transition",
		slog.String("status", "ok"),
		slog.String("from", "quiz"),
		slog.String("to", "selecting_category"),
	)
	closeWriter(t, aw)

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	expected := []string{"ts=", "level=INFO", "component=quiz", "event=quiz.transition", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "from=quiz", "to=selecting_category"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "rid-json")

	log := slog.New(handler).With("component", "trivia")
	LogEvent(ctx, log, slog.LevelError, "trivia.fetch",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "SOURCE_UNAVAILABLE"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"trivia"`, `"event":"trivia.fetch"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	for _, tc := range []struct {
		name     string
		format   logFormat
		wantRID  string
		wantFull bool
	}{
		{name: "kv", format: formatKV, wantRID: "rid=" + CompactRID("123:456:789")},
		{name: "json", format: formatJSON, wantRID: `"rid":"` + CompactRID("123:456:789") + `"`, wantFull: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler, aw := newTestHandler(buf, tc.format)
			ctx := WithRID(Background(), "123:456:789")
			LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test")
			closeWriter(t, aw)

			line := buf.String()
			if !strings.Contains(line, tc.wantRID) {
				t.Fatalf("expected %s in %s", tc.wantRID, line)
			}
			if got := strings.Contains(line, "rid_full"); got != tc.wantFull {
				t.Fatalf("rid_full present = %v, want %v (%s)", got, tc.wantFull, line)
			}
		})
	}
}

func TestStructuredHandlerDurationsAndLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	log := slog.New(handler)
	log.LogAttrs(Background(), slog.LevelDebug, "dropped")
	LogEvent(Background(), log, slog.LevelWarn, "timed",
		slog.Duration("duration", 1499*time.Microsecond),
		slog.String("outcome", "bogus"),
		slog.String("empty", "  "),
	)
	closeWriter(t, aw)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	for _, want := range []string{"level=WARN", "duration_ms=1", "component=app"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	for _, unwanted := range []string{"outcome=", "empty="} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("unexpected %s in %s", unwanted, out)
		}
	}
}

func TestCompactRID(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"35:36:-1":    "z.10.-1",
		"not-a-rid":   "not-a-rid",
		"1:x:3":       "1:x:3",
		"10:20:30:40": "10:20:30:40",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Errorf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler should allow everything")
	}

	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parseRatioSpec(2/5) = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("SanitizeLimit truncation = %q", got)
	}
}
