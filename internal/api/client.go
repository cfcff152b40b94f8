// Package api is the typed client for the platform REST backend. Every
// response body is validated here at the boundary; malformed payloads are
// rejected as classified errors instead of leaking undefined fields upward.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

const maxResponseBody = 1 << 20 // 1MB

type Client struct {
	baseURL string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name: "platform-api",
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type addLineRequest struct {
	SessionID string `json:"session_id"`
	StoreID   int64  `json:"store_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type updateLineRequest struct {
	SessionID string `json:"session_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	SessionID string `json:"session_id"`
	StoreID   int64  `json:"store_id"`
	domain.BuyerDetails
}

// GetCart fetches the full line list for (session, store).
func (c *Client) GetCart(ctx context.Context, session string, store int64) ([]domain.CartLine, error) {
	q := url.Values{}
	q.Set("session", session)
	q.Set("store", strconv.FormatInt(store, 10))

	resp, err := c.do(ctx, http.MethodGet, "/cart", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var lines []domain.CartLine
	if err := decodeBody(resp.Body, &lines); err != nil {
		return nil, badResponseErr("cart line list", err)
	}
	for i := range lines {
		if err := validateLine(&lines[i]); err != nil {
			return nil, badResponseErr("cart line list", err)
		}
	}
	return lines, nil
}

// AddLine creates a cart line and returns the server-created line.
func (c *Client) AddLine(ctx context.Context, session string, store, variantID int64, quantity int) (*domain.CartLine, error) {
	body := addLineRequest{SessionID: session, StoreID: store, VariantID: variantID, Quantity: quantity}

	resp, err := c.do(ctx, http.MethodPost, "/cart", nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return decodeLine(resp.Body)
}

// UpdateLine changes the quantity (and variant) of an existing line.
func (c *Client) UpdateLine(ctx context.Context, session string, lineID, variantID int64, quantity int) (*domain.CartLine, error) {
	body := updateLineRequest{SessionID: session, VariantID: variantID, Quantity: quantity}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/%d", lineID), nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return decodeLine(resp.Body)
}

// RemoveLine deletes one line.
func (c *Client) RemoveLine(ctx context.Context, session string, lineID int64) error {
	q := url.Values{}
	q.Set("session", session)

	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", lineID), q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// ClearCart deletes the whole session/store cart.
func (c *Client) ClearCart(ctx context.Context, session string, store int64) error {
	q := url.Values{}
	q.Set("store", strconv.FormatInt(store, 10))

	resp, err := c.do(ctx, http.MethodDelete, "/cart/session/"+url.PathEscape(session), q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// CheckoutOnline submits the cart plus buyer details and returns the
// created order. The MISSING_EMAIL_CONFIG backend code comes back as an
// error matching ErrMissingEmailConfig.
func (c *Client) CheckoutOnline(ctx context.Context, session string, store int64, buyer domain.BuyerDetails) (*domain.Order, error) {
	body := checkoutRequest{SessionID: session, StoreID: store, BuyerDetails: buyer}

	resp, err := c.do(ctx, http.MethodPost, "/cart/checkout/online", nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var order domain.Order
	if err := decodeBody(resp.Body, &order); err != nil {
		return nil, badResponseErr("order record", err)
	}
	if order.ID <= 0 {
		return nil, badResponseErr("order record", fmt.Errorf("non-positive order id %d", order.ID))
	}
	return &order, nil
}

// CheckoutWhatsApp submits the same payload but the backend answers with a
// messaging deep-link URL as plain text, not JSON.
func (c *Client) CheckoutWhatsApp(ctx context.Context, session string, store int64, buyer domain.BuyerDetails) (string, error) {
	body := checkoutRequest{SessionID: session, StoreID: store, BuyerDetails: buyer}

	resp, err := c.do(ctx, http.MethodPost, "/cart/checkout/whatsapp", nil, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", badResponseErr("deep link", err)
	}
	link := strings.TrimSpace(string(raw))
	if u, err := url.Parse(link); err != nil || u.Scheme == "" {
		return "", badResponseErr("deep link", fmt.Errorf("not an absolute URL: %q", link))
	}
	return link, nil
}

// ListProducts fetches a store's catalog with nested variants.
func (c *Client) ListProducts(ctx context.Context, store int64) ([]domain.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/products", store), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var products []domain.Product
	if err := decodeBody(resp.Body, &products); err != nil {
		return nil, badResponseErr("product list", err)
	}
	return products, nil
}

// GetProduct fetches one product with nested variants.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var p domain.Product
	if err := decodeBody(resp.Body, &p); err != nil {
		return nil, badResponseErr("product", err)
	}
	if p.ID <= 0 {
		return nil, badResponseErr("product", fmt.Errorf("non-positive product id %d", p.ID))
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, transportErr(err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, transportErr(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpc.Do(req)
	})
	if err != nil {
		return nil, transportErr(err)
	}
	return resp, nil
}

func decodeBody(r io.Reader, v any) error {
	// Extra fields are tolerated (payload shapes are backend-owned);
	// required fields are checked by the per-type validators.
	return json.NewDecoder(io.LimitReader(r, maxResponseBody)).Decode(v)
}

func decodeLine(r io.Reader) (*domain.CartLine, error) {
	var line domain.CartLine
	if err := decodeBody(r, &line); err != nil {
		return nil, badResponseErr("cart line", err)
	}
	if err := validateLine(&line); err != nil {
		return nil, badResponseErr("cart line", err)
	}
	return &line, nil
}

func validateLine(l *domain.CartLine) error {
	if l.ID <= 0 {
		return fmt.Errorf("non-positive line id %d", l.ID)
	}
	if l.VariantID <= 0 {
		return fmt.Errorf("non-positive variant id %d", l.VariantID)
	}
	if l.Quantity < 1 {
		return fmt.Errorf("quantity %d below 1", l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("negative unit price %s", l.UnitPrice)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Kind:       ErrKindStatus,
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apiErr
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Error
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
