package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestSplitCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		cb      *tele.Callback
		token   string
		payload string
	}{
		{"parsed unique", &tele.Callback{Unique: "product", Data: "doc-a"}, "product", "doc-a"},
		{"raw wire data", &tele.Callback{Data: "\fremove_item|item-1"}, "remove_item", "item-1"},
		{"no payload", &tele.Callback{Data: "\fmy_cart"}, "my_cart", ""},
		{"bare data", &tele.Callback{Data: "pay"}, "pay", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, payload := splitCallbackData(tc.cb)
			if token != tc.token || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", token, payload, tc.token, tc.payload)
			}
		})
	}
}
