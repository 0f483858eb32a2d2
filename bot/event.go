// Package bot adapts Telegram updates to the dialog engine and routes
// its replies back through telebot.
package bot

import (
	"strings"

	"shopbot/dialog"

	tele "gopkg.in/telebot.v4"
)

// eventFrom converts a telebot update into a dialog event. It returns
// false for update kinds the dialog does not handle.
func eventFrom(c tele.Context) (dialog.Event, bool) {
	sender := c.Sender()
	chat := c.Chat()
	if chat == nil {
		return dialog.Event{}, false
	}

	ev := dialog.Event{ChatID: chat.ID}
	if sender != nil {
		ev.UserID = sender.ID
		ev.Username = sender.Username
	}

	if cb := c.Callback(); cb != nil {
		ev.Kind = dialog.KindCallback
		ev.CallbackID = cb.ID
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
		ev.Token, ev.Payload = splitCallbackData(cb)
		return ev, true
	}

	if msg := c.Message(); msg != nil {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return dialog.Event{}, false
		}
		ev.MessageID = msg.ID
		if strings.HasPrefix(text, "/") {
			ev.Kind = dialog.KindCommand
			ev.Token = strings.SplitN(text, " ", 2)[0]
			return ev, true
		}
		ev.Kind = dialog.KindText
		ev.Text = text
		return ev, true
	}

	return dialog.Event{}, false
}

// splitCallbackData recovers the unique|payload pair from callback
// data. Telebot encodes buttons as "\funique|payload" on the wire and
// may pre-parse Unique for registered endpoints.
func splitCallbackData(cb *tele.Callback) (string, string) {
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	token := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return token, payload
}
