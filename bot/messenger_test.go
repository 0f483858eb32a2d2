package bot

import (
	"context"
	"testing"

	"shopbot/dialog"

	tele "gopkg.in/telebot.v4"
)

// sendRecorder captures Send/Respond calls. The remaining tele.Context
// methods come from the embedded nil interface and must stay unreached.
type sendRecorder struct {
	tele.Context
	sent     []any
	opts     []*tele.SendOptions
	answered []*tele.CallbackResponse
}

func (r *sendRecorder) Send(what interface{}, opts ...interface{}) error {
	r.sent = append(r.sent, what)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			r.opts = append(r.opts, so)
		}
	}
	return nil
}

func (r *sendRecorder) Respond(resp ...*tele.CallbackResponse) error {
	r.answered = append(r.answered, resp...)
	return nil
}

func TestTurnMessengerSendsHTMLWithKeyboard(t *testing.T) {
	rec := &sendRecorder{}
	m := &turnMessenger{c: rec}

	err := m.Send(context.Background(), dialog.Message{
		ChatID:   42,
		Text:     "🧺 <b>Ваша корзина:</b>",
		Keyboard: [][]dialog.Button{{{Text: "🧺 Моя корзина", Token: "my_cart"}}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(rec.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(rec.sent))
	}
	if text, ok := rec.sent[0].(string); !ok || text != "🧺 <b>Ваша корзина:</b>" {
		t.Errorf("unexpected payload: %v", rec.sent[0])
	}
	if len(rec.opts) != 1 || rec.opts[0].ParseMode != tele.ModeHTML {
		t.Fatalf("expected HTML parse mode, got %+v", rec.opts)
	}
	kb := rec.opts[0].ReplyMarkup.InlineKeyboard
	if len(kb) != 1 || kb[0][0].Unique != "my_cart" {
		t.Errorf("unexpected keyboard: %v", kb)
	}
}

func TestTurnMessengerSendsPhotoCaption(t *testing.T) {
	rec := &sendRecorder{}
	m := &turnMessenger{c: rec}

	err := m.Send(context.Background(), dialog.Message{
		ChatID: 42,
		Text:   "🐟 <b>Лосось</b>",
		Photo:  []byte("img"),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	photo, ok := rec.sent[0].(*tele.Photo)
	if !ok {
		t.Fatalf("expected photo payload, got %T", rec.sent[0])
	}
	if photo.Caption != "🐟 <b>Лосось</b>" {
		t.Errorf("unexpected caption: %s", photo.Caption)
	}
	if len(rec.opts) != 1 || rec.opts[0].ParseMode != tele.ModeHTML {
		t.Errorf("expected HTML parse mode, got %+v", rec.opts)
	}
	if rec.opts[0].ReplyMarkup != nil {
		t.Errorf("expected no keyboard, got %+v", rec.opts[0].ReplyMarkup)
	}
}

func TestTurnMessengerAck(t *testing.T) {
	rec := &sendRecorder{}
	m := &turnMessenger{c: rec}

	if err := m.Ack(context.Background(), "cb1", "Товар удалён."); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(rec.answered) != 1 || rec.answered[0].CallbackID != "cb1" || rec.answered[0].Text != "Товар удалён." {
		t.Errorf("unexpected callback response: %+v", rec.answered)
	}
}

func TestRateLimitNoticeSendsWarning(t *testing.T) {
	rec := &sendRecorder{}

	if err := RateLimitNotice()(rec); err != nil {
		t.Fatalf("notice: %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0] != msgTooManyRequests {
		t.Errorf("unexpected notice: %v", rec.sent)
	}
}
