package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopbot/core/logger"

	"github.com/shopspring/decimal"
	"log/slog"
)

var (
	// ErrNotFound reports that the requested entity does not exist.
	ErrNotFound = errors.New("storefront: not found")
	// ErrTransport reports a network or server-side failure.
	ErrTransport = errors.New("storefront: transport error")
)

// Client talks to the commerce REST API. All methods honour the passed
// context and return ErrNotFound or ErrTransport-wrapped errors.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Options configures NewClient.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient builds a Client with a dedicated HTTP client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

type productPayload struct {
	ID          int             `json:"id"`
	DocumentID  string          `json:"documentId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       json.Number     `json:"price"`
	Picture     []picturePayload `json:"picture"`
}

type picturePayload struct {
	URL string `json:"url"`
}

type cartPayload struct {
	DocumentID string            `json:"documentId"`
	CartItems  []cartItemPayload `json:"cart_items"`
}

type cartItemPayload struct {
	DocumentID string          `json:"documentId"`
	Amount     json.Number     `json:"amount"`
	Product    *productPayload `json:"product"`
}

type customerPayload struct {
	TelegramID       json.Number `json:"telegram_id"`
	TelegramUsername string      `json:"telegram_username"`
	Email            string      `json:"email"`
}

// ListProducts returns the catalog. An empty catalog is not an error.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	start := time.Now()
	var resp struct {
		Data []productPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/products", nil, &resp); err != nil {
		c.logFail(ctx, "products.list", err, start)
		return nil, err
	}

	products := make([]Product, 0, len(resp.Data))
	for _, p := range resp.Data {
		prod, err := buildProduct(p)
		if err != nil {
			c.logFail(ctx, "products.list", err, start)
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		products = append(products, prod)
	}

	logger.API.Debug("products listed",
		slog.String("event", "products.list"),
		slog.String("status", "ok"),
		slog.Int("count", len(products)),
		slog.Duration("duration", logger.Took(start)),
	)
	return products, nil
}

// GetProduct fetches a single product with its picture URL populated.
func (c *Client) GetProduct(ctx context.Context, documentID string) (Product, error) {
	start := time.Now()
	path := "/api/products/" + url.PathEscape(documentID)
	query := url.Values{"populate[picture][fields][0]": {"url"}}

	var resp struct {
		Data *productPayload `json:"data"`
	}
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		c.logFail(ctx, "products.get", err, start, slog.String("product_id", documentID))
		return Product{}, err
	}
	if resp.Data == nil {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, documentID)
	}

	prod, err := buildProduct(*resp.Data)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(resp.Data.Picture) > 0 {
		prod.PictureURL = resp.Data.Picture[0].URL
	}

	logger.API.Debug("product fetched",
		slog.String("event", "products.get"),
		slog.String("status", "ok"),
		slog.String("product_id", documentID),
		slog.Duration("duration", logger.Took(start)),
	)
	return prod, nil
}

// DownloadImage fetches image bytes. Relative URLs are resolved
// against the API base URL, which serves uploaded media.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	target := imageURL
	if strings.HasPrefix(imageURL, "/") {
		target = c.baseURL + imageURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: image %s", ErrNotFound, imageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image status %s", ErrTransport, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return data, nil
}

// EnsureCart returns the documentId of the chat's cart, creating the
// cart when the chat has none yet.
func (c *Client) EnsureCart(ctx context.Context, chatID int64) (string, error) {
	query := url.Values{"filters[telegram_id][$eq]": {strconv.FormatInt(chatID, 10)}}
	var resp struct {
		Data []cartPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/carts", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) > 0 {
		return resp.Data[0].DocumentID, nil
	}

	start := time.Now()
	payload := map[string]any{
		"data": map[string]any{"telegram_id": strconv.FormatInt(chatID, 10)},
	}
	// Create responses carry documentId at the top level.
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := c.postJSON(ctx, "/api/carts", payload, &created); err != nil {
		c.logFail(ctx, "carts.create", err, start, slog.Int64("chat_id", chatID))
		return "", err
	}
	if created.DocumentID == "" {
		return "", fmt.Errorf("%w: cart create returned no documentId", ErrTransport)
	}

	logger.API.Info("cart created",
		slog.String("event", "carts.create"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("cart_id", created.DocumentID),
		slog.Duration("duration", logger.Took(start)),
	)
	return created.DocumentID, nil
}

// AddCartItem ensures the chat's cart exists and links the product to
// it with the given amount.
func (c *Client) AddCartItem(ctx context.Context, chatID int64, productDocID string, amount float64) error {
	start := time.Now()
	cartDocID, err := c.EnsureCart(ctx, chatID)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"data": map[string]any{
			"amount":  amount,
			"cart":    cartDocID,
			"product": productDocID,
		},
	}
	if err := c.postJSON(ctx, "/api/cart-items", payload, nil); err != nil {
		c.logFail(ctx, "cart_items.add", err, start,
			slog.Int64("chat_id", chatID),
			slog.String("product_id", productDocID),
		)
		return err
	}

	logger.API.Info("cart item added",
		slog.String("event", "cart_items.add"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("cart_id", cartDocID),
		slog.String("product_id", productDocID),
		slog.Float64("amount", amount),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// ListCartItems returns the chat's cart lines with product titles and
// prices populated. A chat without a cart has an empty list.
func (c *Client) ListCartItems(ctx context.Context, chatID int64) ([]CartItem, error) {
	start := time.Now()
	query := url.Values{
		"filters[telegram_id][$eq]":    {strconv.FormatInt(chatID, 10)},
		"populate[cart_items][populate]": {"product"},
	}
	var resp struct {
		Data []cartPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/carts", query, &resp); err != nil {
		c.logFail(ctx, "cart_items.list", err, start, slog.Int64("chat_id", chatID))
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	raw := resp.Data[0].CartItems
	items := make([]CartItem, 0, len(raw))
	for _, it := range raw {
		item := CartItem{
			DocumentID: it.DocumentID,
			Title:      "Без названия",
		}
		if it.Amount != "" {
			if amount, err := it.Amount.Float64(); err == nil {
				item.Amount = amount
			}
		}
		if it.Product != nil {
			if it.Product.Title != "" {
				item.Title = it.Product.Title
			}
			if it.Product.Price != "" {
				price, err := decimal.NewFromString(it.Product.Price.String())
				if err == nil {
					item.Price = &price
				}
			}
		}
		items = append(items, item)
	}

	logger.API.Debug("cart items listed",
		slog.String("event", "cart_items.list"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.Int("items", len(items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return items, nil
}

// DeleteCartItem removes a single cart line by its documentId.
func (c *Client) DeleteCartItem(ctx context.Context, itemDocID string) error {
	start := time.Now()
	path := "/api/cart-items/" + url.PathEscape(itemDocID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemDocID)
	case resp.StatusCode >= 400:
		err := fmt.Errorf("%w: delete status %s", ErrTransport, resp.Status)
		c.logFail(ctx, "cart_items.delete", err, start, slog.String("item_id", itemDocID))
		return err
	}

	logger.API.Info("cart item deleted",
		slog.String("event", "cart_items.delete"),
		slog.String("status", "ok"),
		slog.String("item_id", itemDocID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// UpsertCustomer records checkout contact details.
func (c *Client) UpsertCustomer(ctx context.Context, customer Customer) error {
	start := time.Now()
	payload := map[string]any{
		"data": map[string]any{
			"telegram_id":       customer.ChatID,
			"email":             customer.Email,
			"telegram_username": customer.Username,
		},
	}
	if err := c.postJSON(ctx, "/api/customers", payload, nil); err != nil {
		c.logFail(ctx, "customers.upsert", err, start,
			slog.Int64("chat_id", customer.ChatID),
			slog.String("email", customer.Email),
		)
		return err
	}

	logger.API.Info("customer saved",
		slog.String("event", "customers.upsert"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", customer.ChatID),
		slog.String("email", customer.Email),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// GetCustomerByChatID looks up a previously saved customer record.
func (c *Client) GetCustomerByChatID(ctx context.Context, chatID int64) (Customer, error) {
	query := url.Values{"filters[telegram_id][$eq]": {strconv.FormatInt(chatID, 10)}}
	var resp struct {
		Data []customerPayload `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/customers", query, &resp); err != nil {
		return Customer{}, err
	}
	if len(resp.Data) == 0 {
		return Customer{}, fmt.Errorf("%w: customer for chat %d", ErrNotFound, chatID)
	}

	raw := resp.Data[0]
	customer := Customer{
		Username: raw.TelegramUsername,
		Email:    raw.Email,
	}
	if raw.TelegramID != "" {
		if id, err := raw.TelegramID.Int64(); err == nil {
			customer.ChatID = id
		}
	}
	return customer, nil
}

func buildProduct(p productPayload) (Product, error) {
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return Product{}, fmt.Errorf("product %s: bad price %q", p.DocumentID, p.Price.String())
	}
	return Product{
		ID:          p.ID,
		DocumentID:  p.DocumentID,
		Title:       p.Title,
		Description: p.Description,
		Price:       price,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s %s", ErrNotFound, req.Method, req.URL.Path)
	case resp.StatusCode >= 400:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s %s: status %s", ErrTransport, req.Method, req.URL.Path, resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, req.URL.Path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) logFail(ctx context.Context, event string, err error, start time.Time, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("event", event),
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
		slog.Duration("duration", logger.Took(start)),
	}
	attrs = append(attrs, extra...)
	logger.API.LogAttrs(ctx, slog.LevelError, "storefront request failed", attrs...)
}
