package dialog

// EventKind distinguishes the transport update that produced an Event.
type EventKind int

const (
	// KindText is a plain text message.
	KindText EventKind = iota
	// KindCommand is a slash command.
	KindCommand
	// KindCallback is an inline keyboard press.
	KindCallback
)

// Callback tokens. Product picks from the catalog carry TokenProduct
// with the product documentId as payload.
const (
	TokenStart      = "/start"
	TokenProduct    = "product"
	TokenAddToCart  = "add_to_cart"
	TokenBackToMenu = "back_to_menu"
	TokenMyCart     = "my_cart"
	TokenRemoveItem = "remove_item"
	TokenPay        = "pay"
)

// Event is a transport-agnostic user action.
type Event struct {
	Kind       EventKind
	ChatID     int64
	UserID     int64
	Username   string
	MessageID  int
	CallbackID string
	// Token and Payload are set for commands and callbacks.
	Token   string
	Payload string
	// Text is set for plain text messages.
	Text string
}

// ForcedState returns the state an event unconditionally routes to,
// regardless of what the chat had stored. Global navigation tokens
// must work from any screen, including stale keyboards.
func ForcedState(ev Event) (State, bool) {
	if ev.Kind == KindCommand && ev.Token == TokenStart {
		return StateStart, true
	}
	if ev.Kind != KindCallback {
		return "", false
	}
	switch ev.Token {
	case TokenBackToMenu:
		return StateViewingProduct, true
	case TokenMyCart, TokenRemoveItem:
		return StateViewingCart, true
	case TokenPay:
		return StateAwaitingEmail, true
	}
	return "", false
}
