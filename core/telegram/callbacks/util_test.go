package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name        string
		cb          *tele.Callback
		wantUnique  string
		wantPayload string
	}{
		{name: "nil", cb: nil},
		{name: "encoded", cb: &tele.Callback{Data: "\fqz_cat|23"}, wantUnique: "qz_cat", wantPayload: "23"},
		{name: "payload with separator", cb: &tele.Callback{Data: "\fqz_ans|01hx.2|x"}, wantUnique: "qz_ans", wantPayload: "01hx.2|x"},
		{name: "no payload", cb: &tele.Callback{Data: "\fqz_begin"}, wantUnique: "qz_begin"},
		{name: "resolved by telebot", cb: &tele.Callback{Unique: "qz_diff", Data: "easy"}, wantUnique: "qz_diff", wantPayload: "easy"},
		{name: "plain data", cb: &tele.Callback{Data: "legacy"}, wantUnique: "legacy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, p := ParseCallbackData(tt.cb)
			if u != tt.wantUnique || p != tt.wantPayload {
				t.Fatalf("ParseCallbackData() = (%q, %q), want (%q, %q)", u, p, tt.wantUnique, tt.wantPayload)
			}
		})
	}
}
