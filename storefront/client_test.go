package storefront

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Token: "test-token"})
}

func TestListProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"documentId":"doc-a","title":"Лосось","description":"Свежий","price":"500.00"},
			{"id":2,"documentId":"doc-b","title":"Треска","description":"Охлаждённая","price":350}
		]}`))
	})

	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].DocumentID != "doc-a" || products[0].Title != "Лосось" {
		t.Errorf("unexpected first product: %+v", products[0])
	}
	if products[0].Price.String() != "500" {
		t.Errorf("unexpected price: %s", products[0].Price)
	}
	if products[1].Price.String() != "350" {
		t.Errorf("numeric price not parsed: %s", products[1].Price)
	}
}

func TestGetProductPopulatesPicture(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/doc-a" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("populate[picture][fields][0]"); got != "url" {
			t.Errorf("missing picture populate, query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":1,"documentId":"doc-a","title":"Лосось","description":"Свежий","price":"500.00","picture":[{"url":"/uploads/salmon.jpg"}]}}`))
	})

	product, err := client.GetProduct(context.Background(), "doc-a")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product.PictureURL != "/uploads/salmon.jpg" {
		t.Errorf("unexpected picture url: %s", product.PictureURL)
	}
}

func TestGetProductNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetProduct(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProductServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetProduct(context.Background(), "doc-a")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestEnsureCartExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s for existing cart", r.Method)
		}
		if got := r.URL.Query().Get("filters[telegram_id][$eq]"); got != "42" {
			t.Errorf("unexpected filter: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"documentId":"cart-1"}]}`))
	})

	cartID, err := client.EnsureCart(context.Background(), 42)
	if err != nil {
		t.Fatalf("EnsureCart: %v", err)
	}
	if cartID != "cart-1" {
		t.Errorf("unexpected cart id: %s", cartID)
	}
}

func TestEnsureCartCreates(t *testing.T) {
	var created bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data":[]}`))
		case http.MethodPost:
			created = true
			if r.URL.Path != "/api/carts" {
				t.Errorf("unexpected create path: %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"documentId":"cart-new"}`))
		}
	})

	cartID, err := client.EnsureCart(context.Background(), 42)
	if err != nil {
		t.Fatalf("EnsureCart: %v", err)
	}
	if !created {
		t.Fatal("expected POST /api/carts")
	}
	if cartID != "cart-new" {
		t.Errorf("unexpected cart id: %s", cartID)
	}
}

func TestListCartItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("populate[cart_items][populate]"); got != "product" {
			t.Errorf("missing product populate, query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"documentId":"cart-1","cart_items":[
			{"documentId":"item-1","amount":2,"product":{"title":"Лосось","price":"500"}},
			{"documentId":"item-2","amount":1,"product":{"title":"Треска"}}
		]}]}`))
	})

	items, err := client.ListCartItems(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListCartItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Price == nil || items[0].Price.String() != "500" {
		t.Errorf("unexpected first price: %+v", items[0].Price)
	}
	if items[1].Price != nil {
		t.Errorf("expected nil price for priceless product, got %s", items[1].Price)
	}
	if items[0].Amount != 2 {
		t.Errorf("unexpected amount: %v", items[0].Amount)
	}
}

func TestListCartItemsNoCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	items, err := client.ListCartItems(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListCartItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestDeleteCartItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/cart-items/item-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteCartItem(context.Background(), "item-1"); err != nil {
		t.Fatalf("DeleteCartItem: %v", err)
	}
}

func TestDownloadImageResolvesRelativeURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uploads/salmon.jpg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("jpegbytes"))
	})

	data, err := client.DownloadImage(context.Background(), "/uploads/salmon.jpg")
	if err != nil {
		t.Fatalf("DownloadImage: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestUpsertCustomer(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/customers" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpsertCustomer(context.Background(), Customer{
		ChatID:   42,
		Username: "fisher",
		Email:    "a@b.cd",
	})
	if err != nil {
		t.Fatalf("UpsertCustomer: %v", err)
	}
	for _, want := range []string{`"telegram_id":42`, `"email":"a@b.cd"`, `"telegram_username":"fisher"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %s: %s", want, gotBody)
		}
	}
}
