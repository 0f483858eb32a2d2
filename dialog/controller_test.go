package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shopbot/statestore"
	"shopbot/storefront"

	"github.com/shopspring/decimal"
)

type fakeStorefront struct {
	products     []storefront.Product
	productErr   error
	cartItems    []storefront.CartItem
	cartErr      error
	addErr       error
	deleteErr    error
	customerErr  error

	addedProducts []string
	deletedItems  []string
	customers     []storefront.Customer
}

func (f *fakeStorefront) ListProducts(context.Context) ([]storefront.Product, error) {
	return f.products, f.productErr
}

func (f *fakeStorefront) GetProduct(_ context.Context, documentID string) (storefront.Product, error) {
	for _, p := range f.products {
		if p.DocumentID == documentID {
			return p, nil
		}
	}
	if f.productErr != nil {
		return storefront.Product{}, f.productErr
	}
	return storefront.Product{}, storefront.ErrNotFound
}

func (f *fakeStorefront) DownloadImage(context.Context, string) ([]byte, error) {
	return []byte("img"), nil
}

func (f *fakeStorefront) AddCartItem(_ context.Context, _ int64, productDocID string, _ float64) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedProducts = append(f.addedProducts, productDocID)
	return nil
}

func (f *fakeStorefront) ListCartItems(context.Context, int64) ([]storefront.CartItem, error) {
	return f.cartItems, f.cartErr
}

func (f *fakeStorefront) DeleteCartItem(_ context.Context, itemDocID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedItems = append(f.deletedItems, itemDocID)
	return nil
}

func (f *fakeStorefront) UpsertCustomer(_ context.Context, customer storefront.Customer) error {
	if f.customerErr != nil {
		return f.customerErr
	}
	f.customers = append(f.customers, customer)
	return nil
}

type fakeMessenger struct {
	sent    []Message
	sendErr error
	acks    []string
	deleted []int
}

func (f *fakeMessenger) Send(_ context.Context, msg Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMessenger) Ack(_ context.Context, _ string, text string) error {
	f.acks = append(f.acks, text)
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func catalog() []storefront.Product {
	return []storefront.Product{
		{ID: 1, DocumentID: "doc-a", Title: "Лосось", Description: "Свежий", Price: price("500")},
		{ID: 2, DocumentID: "doc-b", Title: "Треска", Description: "Охлаждённая", Price: price("350")},
	}
}

func storedState(t *testing.T, store statestore.Store, chatID int64) string {
	t.Helper()
	state, found, err := store.Get(context.Background(), chatID)
	if err != nil || !found {
		t.Fatalf("state not stored: found=%v err=%v", found, err)
	}
	return state
}

func TestStartShowsCatalogAndAdvances(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{Kind: KindCommand, Token: TokenStart, ChatID: 42})

	if len(m.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if !strings.Contains(msg.Text, "Добро пожаловать") {
		t.Errorf("unexpected greeting: %s", msg.Text)
	}
	// Two products plus the cart row.
	if len(msg.Keyboard) != 3 {
		t.Fatalf("expected 3 keyboard rows, got %d", len(msg.Keyboard))
	}
	if msg.Keyboard[0][0].Token != TokenProduct || msg.Keyboard[0][0].Payload != "doc-a" {
		t.Errorf("unexpected first button: %+v", msg.Keyboard[0][0])
	}
	if msg.Keyboard[2][0].Token != TokenMyCart {
		t.Errorf("expected cart button last, got %+v", msg.Keyboard[2][0])
	}
	if got := storedState(t, store, 42); got != "BROWSING_MENU" {
		t.Errorf("stored state = %s", got)
	}
}

func TestStartWithEmptyCatalogStays(t *testing.T) {
	api := &fakeStorefront{}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{Kind: KindCommand, Token: TokenStart, ChatID: 42})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "временно недоступны") {
		t.Fatalf("expected unavailable notice, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "START" {
		t.Errorf("stored state = %s", got)
	}
}

func TestProductPickShowsCard(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "BROWSING_MENU")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenProduct, Payload: "doc-a",
		ChatID: 42, CallbackID: "cb1", MessageID: 7,
	})

	if len(m.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if !strings.Contains(msg.Text, "Лосось") || !strings.Contains(msg.Text, "500") {
		t.Errorf("card missing product details: %s", msg.Text)
	}
	if len(msg.Keyboard) != 3 {
		t.Fatalf("expected add/cart/back rows, got %d", len(msg.Keyboard))
	}
	if msg.Keyboard[0][0].Token != TokenAddToCart || msg.Keyboard[0][0].Payload != "doc-a" {
		t.Errorf("unexpected add button: %+v", msg.Keyboard[0][0])
	}
	if len(m.deleted) != 1 || m.deleted[0] != 7 {
		t.Errorf("menu message not deleted: %v", m.deleted)
	}
	if got := storedState(t, store, 42); got != "VIEWING_PRODUCT" {
		t.Errorf("stored state = %s", got)
	}
}

func TestProductPickNotFoundStaysInMenu(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "BROWSING_MENU")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenProduct, Payload: "missing",
		ChatID: 42, CallbackID: "cb1",
	})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "ошибка при загрузке") {
		t.Fatalf("expected load error notice, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "BROWSING_MENU" {
		t.Errorf("stored state = %s", got)
	}
}

func TestAddToCart(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "VIEWING_PRODUCT")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenAddToCart, Payload: "doc-a",
		ChatID: 42, CallbackID: "cb1",
	})

	if len(api.addedProducts) != 1 || api.addedProducts[0] != "doc-a" {
		t.Fatalf("product not added: %v", api.addedProducts)
	}
	if len(m.acks) != 1 || !strings.Contains(m.acks[0], "добавлен") {
		t.Errorf("expected success toast, got %v", m.acks)
	}
	if got := storedState(t, store, 42); got != "VIEWING_PRODUCT" {
		t.Errorf("stored state = %s", got)
	}
}

func TestAddToCartFailureKeepsState(t *testing.T) {
	api := &fakeStorefront{products: catalog(), addErr: errors.New("boom")}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "VIEWING_PRODUCT")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenAddToCart, Payload: "doc-a",
		ChatID: 42, CallbackID: "cb1",
	})

	if len(m.acks) != 1 || !strings.Contains(m.acks[0], "Не удалось добавить") {
		t.Errorf("expected failure toast, got %v", m.acks)
	}
	if got := storedState(t, store, 42); got != "VIEWING_PRODUCT" {
		t.Errorf("stored state = %s", got)
	}
}

func TestMyCartRendersItems(t *testing.T) {
	p := price("500")
	api := &fakeStorefront{cartItems: []storefront.CartItem{
		{DocumentID: "item-1", Title: "Лосось", Amount: 2, Price: &p},
	}}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	// my_cart is forced: works even with no stored state.
	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenMyCart,
		ChatID: 42, CallbackID: "cb1", MessageID: 9,
	})

	if len(m.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if !strings.Contains(msg.Text, "1000") {
		t.Errorf("expected line total in cart: %s", msg.Text)
	}
	// Item row plus menu and pay rows.
	if len(msg.Keyboard) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(msg.Keyboard))
	}
	if msg.Keyboard[0][0].Token != TokenRemoveItem || msg.Keyboard[0][0].Payload != "item-1" {
		t.Errorf("unexpected remove button: %+v", msg.Keyboard[0][0])
	}
	if got := storedState(t, store, 42); got != "VIEWING_CART" {
		t.Errorf("stored state = %s", got)
	}
}

func TestRemoveItemRerendersCart(t *testing.T) {
	api := &fakeStorefront{}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenRemoveItem, Payload: "item-1",
		ChatID: 42, CallbackID: "cb1",
	})

	if len(api.deletedItems) != 1 || api.deletedItems[0] != "item-1" {
		t.Fatalf("item not deleted: %v", api.deletedItems)
	}
	if len(m.acks) != 1 || m.acks[0] != "Товар удалён." {
		t.Errorf("expected removal toast, got %v", m.acks)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "пока пуста") {
		t.Errorf("expected empty cart render, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "VIEWING_CART" {
		t.Errorf("stored state = %s", got)
	}
}

func TestCartLoadFailureShowsFallback(t *testing.T) {
	api := &fakeStorefront{cartErr: errors.New("boom")}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenMyCart, ChatID: 42, CallbackID: "cb1",
	})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "Не удалось загрузить корзину") {
		t.Fatalf("expected cart failure notice, got %+v", m.sent)
	}
	if len(m.sent[0].Keyboard) != 1 || m.sent[0].Keyboard[0][0].Token != TokenBackToMenu {
		t.Errorf("expected menu-only keyboard, got %+v", m.sent[0].Keyboard)
	}
}

func TestBackToMenuOverridesStoredState(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "AWAITING_EMAIL")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	// back_to_menu is forced: it beats the stored checkout state and
	// re-renders the catalog.
	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenBackToMenu, ChatID: 42, CallbackID: "cb1",
	})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "Выберите товар") {
		t.Fatalf("expected catalog render, got %+v", m.sent)
	}
	// Product rows only: the re-render has no cart shortcut.
	kb := m.sent[0].Keyboard
	if len(kb) != 2 {
		t.Fatalf("expected 2 product rows, got %d", len(kb))
	}
	for _, row := range kb {
		if row[0].Token == TokenMyCart {
			t.Errorf("unexpected cart button on re-render: %+v", row[0])
		}
	}
	if got := storedState(t, store, 42); got != "BROWSING_MENU" {
		t.Errorf("stored state = %s", got)
	}
}

func TestPayPromptsForEmail(t *testing.T) {
	api := &fakeStorefront{}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "VIEWING_CART")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	// pay forces AWAITING_EMAIL; its handler sees a non-text event and
	// emits the email prompt.
	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindCallback, Token: TokenPay, ChatID: 42, CallbackID: "cb1",
	})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "почту текстом") {
		t.Fatalf("expected email prompt, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "AWAITING_EMAIL" {
		t.Errorf("stored state = %s", got)
	}
}

func TestEmailCheckout(t *testing.T) {
	api := &fakeStorefront{}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "AWAITING_EMAIL")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{
		Kind: KindText, Text: "fisher@example.com",
		ChatID: 42, UserID: 100, Username: "fisher",
	})

	if len(api.customers) != 1 {
		t.Fatalf("customer not saved: %v", api.customers)
	}
	saved := api.customers[0]
	if saved.ChatID != 100 || saved.Username != "fisher" || saved.Email != "fisher@example.com" {
		t.Errorf("unexpected customer: %+v", saved)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "fisher@example.com") {
		t.Errorf("expected confirmation, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "START" {
		t.Errorf("stored state = %s", got)
	}
}

func TestEmailInvalidRetries(t *testing.T) {
	api := &fakeStorefront{}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "AWAITING_EMAIL")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{Kind: KindText, Text: "not-an-email", ChatID: 42})

	if len(api.customers) != 0 {
		t.Fatal("customer saved for invalid email")
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "не похоже на email") {
		t.Fatalf("expected retry prompt, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "AWAITING_EMAIL" {
		t.Errorf("stored state = %s", got)
	}
}

func TestSendFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	ctrl := NewController(api, store)
	m := &fakeMessenger{sendErr: errors.New("network down")}

	ctrl.HandleEvent(context.Background(), m, Event{Kind: KindCommand, Token: TokenStart, ChatID: 42})

	if _, found, _ := store.Get(context.Background(), 42); found {
		t.Fatal("state written despite handler failure")
	}
}

func TestInvalidStoredStateFallsBackToStart(t *testing.T) {
	api := &fakeStorefront{products: catalog()}
	store := statestore.NewMemoryStore()
	_ = store.Set(context.Background(), 42, "HANDLE_MENU")
	ctrl := NewController(api, store)
	m := &fakeMessenger{}

	ctrl.HandleEvent(context.Background(), m, Event{Kind: KindText, Text: "hello", ChatID: 42})

	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Text, "Добро пожаловать") {
		t.Fatalf("expected greeting for invalid stored state, got %+v", m.sent)
	}
	if got := storedState(t, store, 42); got != "BROWSING_MENU" {
		t.Errorf("stored state = %s", got)
	}
}
