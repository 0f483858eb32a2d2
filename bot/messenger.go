package bot

import (
	"bytes"
	"context"
	"strconv"

	tghelpers "shopbot/core/telegram/helpers"
	"shopbot/core/telegram/keyboard"
	"shopbot/dialog"

	tele "gopkg.in/telebot.v4"
)

// turnMessenger delivers one turn's replies through the update's
// telebot context. Sends are synchronous so the dialog engine sees
// delivery failures before persisting state; deletes are fire-and-
// forget and go through the async sender.
type turnMessenger struct {
	c tele.Context
}

func (t *turnMessenger) Send(_ context.Context, msg dialog.Message) error {
	markup := buildMarkup(msg.Keyboard)

	if len(msg.Photo) > 0 {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(msg.Photo)),
			Caption: msg.Text,
		}
		return tghelpers.SendPhotoHTML(t.c, photo, markup)
	}
	return tghelpers.SendHTML(t.c, msg.Text, markup)
}

func (t *turnMessenger) Ack(_ context.Context, callbackID, text string) error {
	resp := &tele.CallbackResponse{CallbackID: callbackID}
	if text != "" {
		resp.Text = text
	}
	return t.c.Respond(resp)
}

func (t *turnMessenger) Delete(_ context.Context, chatID int64, messageID int) error {
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	return tghelpers.SendAsync(t.c, "delete.message", "deleteMessage", func() error {
		return t.c.Bot().Delete(stored)
	})
}

func buildMarkup(rows [][]dialog.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	btnRows := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{
				Text:   b.Text,
				Unique: b.Token,
				Data:   b.Payload,
			})
		}
		btnRows = append(btnRows, btns)
	}
	return keyboard.InlineButtonsRows(btnRows...)
}
