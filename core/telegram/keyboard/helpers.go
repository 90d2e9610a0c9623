package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is a callback button: Unique routes it, Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

func (b InlineBtn) inline(m *tele.ReplyMarkup) tele.InlineButton {
	return *m.Data(b.Text, b.Unique, b.Data).Inline()
}

// InlineButtons places each button on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// InlineButtonsRows builds an inline keyboard from explicit rows.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{InlineKeyboard: make([][]tele.InlineButton, 0, len(rows))}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out := make([]tele.InlineButton, len(row))
		for i, b := range row {
			out[i] = b.inline(markup)
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, out)
	}
	return markup
}

// InlineButtonsNPerRow lays buttons out in rows of n, the last row holding the rest.
// n <= 1 yields one button per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	n = max(n, 1)
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		rows = append(rows, buttons[:k])
		buttons = buttons[k:]
	}
	return InlineButtonsRows(rows...)
}
