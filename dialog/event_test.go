package dialog

import "testing"

func TestForcedState(t *testing.T) {
	cases := []struct {
		name   string
		ev     Event
		want   State
		forced bool
	}{
		{"start command", Event{Kind: KindCommand, Token: TokenStart}, StateStart, true},
		{"back to menu", Event{Kind: KindCallback, Token: TokenBackToMenu}, StateViewingProduct, true},
		{"my cart", Event{Kind: KindCallback, Token: TokenMyCart}, StateViewingCart, true},
		{"remove item", Event{Kind: KindCallback, Token: TokenRemoveItem, Payload: "item-1"}, StateViewingCart, true},
		{"pay", Event{Kind: KindCallback, Token: TokenPay}, StateAwaitingEmail, true},
		{"product pick", Event{Kind: KindCallback, Token: TokenProduct, Payload: "doc-a"}, "", false},
		{"plain text", Event{Kind: KindText, Text: "hello"}, "", false},
		{"pay as text is not forced", Event{Kind: KindText, Text: "pay"}, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, forced := ForcedState(tc.ev)
			if forced != tc.forced || got != tc.want {
				t.Fatalf("ForcedState(%+v) = (%q, %v), want (%q, %v)", tc.ev, got, forced, tc.want, tc.forced)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, valid := range []string{"START", "BROWSING_MENU", "VIEWING_PRODUCT", "VIEWING_CART", "AWAITING_EMAIL"} {
		if _, err := ParseState(valid); err != nil {
			t.Errorf("ParseState(%q): %v", valid, err)
		}
	}
	if _, err := ParseState("HANDLE_MENU"); err == nil {
		t.Error("expected error for unknown state")
	}
	if _, err := ParseState(""); err == nil {
		t.Error("expected error for empty state")
	}
}
