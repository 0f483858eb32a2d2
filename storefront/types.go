package storefront

import "github.com/shopspring/decimal"

// Product is a catalog entry. DocumentID is the stable identifier used
// in API paths and relation payloads; ID is the numeric row id.
type Product struct {
	ID          int
	DocumentID  string
	Title       string
	Description string
	Price       decimal.Decimal
	PictureURL  string
}

// CartItem is a single cart line. Price is nil when the related product
// carries no price (the product may have been unpublished since).
type CartItem struct {
	DocumentID string
	Title      string
	Amount     float64
	Price      *decimal.Decimal
}

// Customer holds the contact details collected at checkout.
type Customer struct {
	ChatID   int64
	Username string
	Email    string
}
