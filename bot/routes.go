package bot

import (
	"strings"

	coretelegram "shopbot/core/telegram"
	"shopbot/core/telegram/commands"
	tghelpers "shopbot/core/telegram/helpers"
	"shopbot/dialog"

	tele "gopkg.in/telebot.v4"
)

const msgTooManyRequests = "Слишком много запросов. Попробуйте чуть позже."

// Routes funnels text and callback updates into the dialog controller,
// which resolves the chat's state itself. Commands are bound from the
// registry (see Register); the text route resolves their aliases.
func Routes(reg *coretelegram.Registry, ctrl *dialog.Controller) []coretelegram.Route {
	return []coretelegram.Route{
		{Endpoint: tele.OnText, Handler: handleText(reg, ctrl)},
		{Endpoint: tele.OnCallback, Handler: handleUpdate(ctrl, "callback")},
	}
}

// Register adds the /start command so it shows up in the Telegram menu
// and gets bound as a handler by the runtime.
func Register(reg *coretelegram.Registry, ctrl *dialog.Controller) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     handleUpdate(ctrl, "start"),
		Description: "Каталог магазина",
		Aliases:     []string{"menu"},
	})
}

// RateLimitNotice tells a throttled user to slow down; best effort.
func RateLimitNotice() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgTooManyRequests)
	}
}

func handleText(reg *coretelegram.Registry, ctrl *dialog.Controller) tele.HandlerFunc {
	plain := handleUpdate(ctrl, "text")
	return func(c tele.Context) error {
		// Registered commands never reach OnText; slash texts landing
		// here are aliases (or typos) and dispatch via the registry.
		if text := strings.TrimSpace(c.Text()); strings.HasPrefix(text, "/") {
			if _, cmd, ok := reg.LookupCommand(strings.Fields(text)[0]); ok {
				return cmd.Handler(c)
			}
		}
		return plain(c)
	}
}

func handleUpdate(ctrl *dialog.Controller, name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, name)
		ev, ok := eventFrom(c)
		if !ok {
			return nil
		}
		ctrl.HandleEvent(ctx, &turnMessenger{c: c}, ev)
		return nil
	}
}
