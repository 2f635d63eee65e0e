package backend

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

	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

const (
	userAgent        = "poolbot/1.0"
	maxErrorBodySize = 4 * 1024
	defaultTimeout   = 15 * time.Second
)

// ErrProductNotFound is returned when the exact product lookup does not answer 200.
var ErrProductNotFound = errors.New("product not found")

// PricingError is a non-2xx answer from the pricing endpoint.
type PricingError struct {
	Status int
	Detail string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing request failed with status %d: %s", e.Status, e.Detail)
}

// Client talks to the pool equipment query API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	pricingToken string
}

// NewClient creates a client for the query API. Every request is bounded by cfg.Timeout.
func NewClient(cfg model.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pricingToken: cfg.PricingToken,
	}
}

// do executes a request and maps transport failures to errx.ErrUpstreamUnavailable.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errx.WrapUpstream(err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func decodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errx.WrapUpstream(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// GetProduct looks up a product by its exact part number.
func (c *Client) GetProduct(ctx context.Context, partNumber string) (*model.Product, error) {
	resp, err := c.get(ctx, "/api/products/"+url.PathEscape(partNumber), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		logx.Debug().Str("part_number", partNumber).Int("status", resp.StatusCode).Msg("product lookup missed")
		return nil, fmt.Errorf("%w: %s (status %d)", ErrProductNotFound, partNumber, resp.StatusCode)
	}

	var product model.Product
	if err := decodeJSON(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// VectorSearch runs the semantic product search.
func (c *Client) VectorSearch(ctx context.Context, query string, limit int) ([]model.Product, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/api/products/search", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errx.UpstreamStatus("/api/products/search", resp.StatusCode)
	}

	var out struct {
		Items []model.Product `json:"items"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// KeywordSearch runs the plain keyword product search.
func (c *Client) KeywordSearch(ctx context.Context, term string, pageSize, page int) ([]model.KeywordItem, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))

	resp, err := c.get(ctx, "/api/search", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errx.UpstreamStatus("/api/search", resp.StatusCode)
	}

	var out struct {
		Items []model.KeywordItem `json:"items"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetPricing requests pricing for a single item. Non-2xx answers come back as *PricingError.
func (c *Client) GetPricing(ctx context.Context, itemCode, unit string) ([]model.PriceItem, error) {
	body, err := json.Marshal(model.PricingRequest{
		Items: []model.PricingItemRequest{{ItemCode: itemCode, Unit: unit}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pricing request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pricing", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.pricingToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.pricingToken)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &PricingError{Status: resp.StatusCode, Detail: errorDetail(raw)}
	}

	var out struct {
		Items []model.PriceItem `json:"items"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SearchStores finds stores around a coordinate.
func (c *Client) SearchStores(ctx context.Context, q model.StoreQuery) ([]model.Store, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(q.Radius, 'f', -1, 64))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("page", strconv.Itoa(q.Page))

	resp, err := c.get(ctx, "/api/stores/search", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errx.UpstreamStatus("/api/stores/search", resp.StatusCode)
	}

	var out struct {
		Stores []model.Store `json:"stores"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Stores, nil
}

// errorDetail pulls the "detail" field out of an error body.
func errorDetail(raw []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Detail == nil {
		return "Unknown error"
	}
	if s, ok := body.Detail.(string); ok {
		return s
	}
	b, err := json.Marshal(body.Detail)
	if err != nil {
		return "Unknown error"
	}
	return string(b)
}
