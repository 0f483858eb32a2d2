package dialog

import (
	"context"

	"shopbot/storefront"
)

// Button is an inline keyboard button carrying a callback token.
type Button struct {
	Text    string
	Token   string
	Payload string
}

// Message is an outbound chat message with an optional photo and keyboard.
type Message struct {
	ChatID   int64
	Text     string
	Photo    []byte
	Keyboard [][]Button
}

// Messenger delivers responses for a single turn. Implementations wrap
// the chat transport; tests substitute fakes.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
	// Ack answers a callback query, optionally with a toast text.
	Ack(ctx context.Context, callbackID, text string) error
	// Delete removes a previously sent message.
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Storefront is the commerce API surface the dialog needs.
type Storefront interface {
	ListProducts(ctx context.Context) ([]storefront.Product, error)
	GetProduct(ctx context.Context, documentID string) (storefront.Product, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
	AddCartItem(ctx context.Context, chatID int64, productDocID string, amount float64) error
	ListCartItems(ctx context.Context, chatID int64) ([]storefront.CartItem, error)
	DeleteCartItem(ctx context.Context, itemDocID string) error
	UpsertCustomer(ctx context.Context, customer storefront.Customer) error
}
