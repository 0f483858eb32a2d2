// Package dialog implements the conversational storefront flow: a
// per-chat state machine that walks users from the catalog to checkout.
package dialog

import "fmt"

// State identifies the position of a chat in the purchase flow.
// The string value is what gets persisted in the state store.
type State string

const (
	// StateStart shows the catalog greeting.
	StateStart State = "START"
	// StateBrowsingMenu waits for a product pick from the catalog list.
	StateBrowsingMenu State = "BROWSING_MENU"
	// StateViewingProduct shows a product card with cart actions.
	StateViewingProduct State = "VIEWING_PRODUCT"
	// StateViewingCart shows the cart with line removal and payment.
	StateViewingCart State = "VIEWING_CART"
	// StateAwaitingEmail collects the checkout contact email.
	StateAwaitingEmail State = "AWAITING_EMAIL"
)

// ParseState validates a stored state string.
func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateStart, StateBrowsingMenu, StateViewingProduct, StateViewingCart, StateAwaitingEmail:
		return State(raw), nil
	}
	return "", fmt.Errorf("unknown dialog state %q", raw)
}
