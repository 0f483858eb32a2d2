package dialog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"shopbot/core/logger"
	"shopbot/storefront"

	"log/slog"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-zA-Z0-9]+$`)

// handleStart greets the chat with the catalog. An empty catalog keeps
// the chat at START so the next message retries.
func (c *Controller) handleStart(ctx context.Context, m Messenger, ev Event) (State, error) {
	products, err := c.api.ListProducts(ctx)
	if err != nil || len(products) == 0 {
		if err != nil {
			logger.Dialog.LogAttrs(ctx, slog.LevelWarn, "catalog unavailable",
				slog.String("event", "catalog.list"),
				slog.Int64("chat_id", ev.ChatID),
				slog.String("err", err.Error()),
			)
		}
		if sendErr := m.Send(ctx, Message{ChatID: ev.ChatID, Text: msgCatalogEmpty}); sendErr != nil {
			return "", sendErr
		}
		return StateStart, nil
	}

	msg := Message{
		ChatID:   ev.ChatID,
		Text:     msgWelcome,
		Keyboard: productButtons(products, true),
	}
	if err := m.Send(ctx, msg); err != nil {
		return "", err
	}
	return StateBrowsingMenu, nil
}

// handleBrowsingMenu shows the product card for the picked catalog entry.
func (c *Controller) handleBrowsingMenu(ctx context.Context, m Messenger, ev Event) (State, error) {
	if ev.Kind != KindCallback {
		// Stray text while the menu is open: show the greeting again.
		return c.handleStart(ctx, m, ev)
	}
	c.ack(ctx, m, ev, "")

	card, err := c.buildProductCard(ctx, ev.ChatID, ev.Payload)
	if err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelError, "product card failed",
			slog.String("event", "product.show"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("product_id", ev.Payload),
			slog.String("err", err.Error()),
		)
		if sendErr := m.Send(ctx, Message{ChatID: ev.ChatID, Text: msgProductLoadFail}); sendErr != nil {
			return "", sendErr
		}
		return StateBrowsingMenu, nil
	}

	if err := m.Send(ctx, card); err != nil {
		return "", err
	}
	c.deleteQuiet(ctx, m, ev)
	return StateViewingProduct, nil
}

func (c *Controller) buildProductCard(ctx context.Context, chatID int64, productDocID string) (Message, error) {
	product, err := c.api.GetProduct(ctx, productDocID)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ChatID:   chatID,
		Text:     productCaption(product),
		Keyboard: productKeyboard(product),
	}
	if product.PictureURL != "" {
		photo, err := c.api.DownloadImage(ctx, product.PictureURL)
		if err != nil {
			return Message{}, fmt.Errorf("picture for %s: %w", productDocID, err)
		}
		msg.Photo = photo
	}
	return msg, nil
}

// handleViewingProduct reacts to the product card buttons: add to cart
// stays on the card, anything else returns to the catalog list.
func (c *Controller) handleViewingProduct(ctx context.Context, m Messenger, ev Event) (State, error) {
	if ev.Kind == KindCallback && ev.Token == TokenAddToCart {
		if err := c.api.AddCartItem(ctx, ev.ChatID, ev.Payload, 1.0); err != nil {
			logger.Dialog.LogAttrs(ctx, slog.LevelError, "add to cart failed",
				slog.String("event", "cart.add"),
				slog.String("status", "fail"),
				slog.Int64("chat_id", ev.ChatID),
				slog.String("product_id", ev.Payload),
				slog.String("err", err.Error()),
			)
			c.ack(ctx, m, ev, msgItemAddFail)
		} else {
			c.ack(ctx, m, ev, msgItemAdded)
		}
		return StateViewingProduct, nil
	}

	products, err := c.api.ListProducts(ctx)
	if err != nil || len(products) == 0 {
		c.ack(ctx, m, ev, msgCatalogEmpty)
		return StateBrowsingMenu, nil
	}
	c.ack(ctx, m, ev, "")

	msg := Message{
		ChatID:   ev.ChatID,
		Text:     msgPickProduct,
		Keyboard: productButtons(products, false),
	}
	if err := m.Send(ctx, msg); err != nil {
		return "", err
	}
	c.deleteQuiet(ctx, m, ev)
	return StateBrowsingMenu, nil
}

// handleViewingCart re-renders the cart after removals. The pay button
// never lands here: it resolves straight to the email step.
func (c *Controller) handleViewingCart(ctx context.Context, m Messenger, ev Event) (State, error) {
	if ev.Kind == KindCallback && ev.Token == TokenRemoveItem {
		if err := c.api.DeleteCartItem(ctx, ev.Payload); err != nil {
			logger.Dialog.LogAttrs(ctx, slog.LevelError, "cart item removal failed",
				slog.String("event", "cart.remove"),
				slog.String("status", "fail"),
				slog.Int64("chat_id", ev.ChatID),
				slog.String("item_id", ev.Payload),
				slog.String("err", err.Error()),
			)
			c.ack(ctx, m, ev, msgItemRemoveFail)
		} else {
			c.ack(ctx, m, ev, msgItemRemoved)
		}
	} else {
		c.ack(ctx, m, ev, "")
	}

	msg := Message{ChatID: ev.ChatID}
	items, err := c.api.ListCartItems(ctx, ev.ChatID)
	if err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelError, "cart load failed",
			slog.String("event", "cart.list"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("err", err.Error()),
		)
		msg.Text = msgCartLoadFail
		msg.Keyboard = cartFallbackKeyboard()
	} else {
		msg.Text = renderCart(items)
		msg.Keyboard = cartKeyboard(items)
	}

	if err := m.Send(ctx, msg); err != nil {
		return "", err
	}
	c.deleteQuiet(ctx, m, ev)
	return StateViewingCart, nil
}

// handleAwaitingEmail validates the contact email and finishes checkout.
func (c *Controller) handleAwaitingEmail(ctx context.Context, m Messenger, ev Event) (State, error) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != KindText || text == "" {
		c.ack(ctx, m, ev, "")
		if err := m.Send(ctx, Message{ChatID: ev.ChatID, Text: msgAskEmail}); err != nil {
			return "", err
		}
		return StateAwaitingEmail, nil
	}

	if !emailRe.MatchString(text) {
		if err := m.Send(ctx, Message{ChatID: ev.ChatID, Text: msgEmailInvalid}); err != nil {
			return "", err
		}
		return StateAwaitingEmail, nil
	}

	customer := storefront.Customer{
		ChatID:   ev.UserID,
		Username: ev.Username,
		Email:    text,
	}
	// Checkout completes even if the customer record fails to save;
	// the failure is already logged by the client.
	_ = c.api.UpsertCustomer(ctx, customer)

	if err := m.Send(ctx, Message{ChatID: ev.ChatID, Text: fmt.Sprintf(msgEmailThanksFmt, text)}); err != nil {
		return "", err
	}
	return StateStart, nil
}

func (c *Controller) ack(ctx context.Context, m Messenger, ev Event, text string) {
	if ev.Kind != KindCallback || ev.CallbackID == "" {
		return
	}
	if err := m.Ack(ctx, ev.CallbackID, text); err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelDebug, "callback ack failed",
			slog.String("event", "turn.ack"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("err", err.Error()),
		)
	}
}

func (c *Controller) deleteQuiet(ctx context.Context, m Messenger, ev Event) {
	if ev.MessageID == 0 {
		return
	}
	if err := m.Delete(ctx, ev.ChatID, ev.MessageID); err != nil {
		logger.Dialog.LogAttrs(ctx, slog.LevelDebug, "message delete failed",
			slog.String("event", "turn.delete"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("err", err.Error()),
		)
	}
}
