package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(model.BackendConfig{
		BaseURL:      server.URL + "/",
		PricingToken: "secret-token",
		Timeout:      2 * time.Second,
	})
}

func TestNewClient(t *testing.T) {
	c := NewClient(model.BackendConfig{BaseURL: "https://api.example.com/"})

	assert.Equal(t, "https://api.example.com", c.baseURL)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestGetProduct_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/HX123456789", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"product_name":"Super Pump","brand":"Hayward","part_number":"HX123456789","heritage_link":"p/hx","manufacturer_id":42}`))
	})

	product, err := c.GetProduct(context.Background(), "HX123456789")

	require.NoError(t, err)
	assert.Equal(t, "Super Pump", product.ProductName)
	assert.Equal(t, "Hayward", product.Brand)
	assert.Equal(t, model.FlexString("42"), product.ManufacturerID)
}

func TestGetProduct_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	})

	product, err := c.GetProduct(context.Background(), "NOPE12345")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NotErrorIs(t, err, errx.ErrUpstreamUnavailable)
}

func TestVectorSearch_SendsQueryAndLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/search", r.URL.Path)
		assert.Equal(t, "hayward pump", r.URL.Query().Get("query"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[{"product_name":"A","brand":"B","part_number":"C","heritage_link":"d"}]}`))
	})

	items, err := c.VectorSearch(context.Background(), "hayward pump", 3)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].ProductName)
}

func TestVectorSearch_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.VectorSearch(context.Background(), "x", 3)

	assert.ErrorIs(t, err, errx.ErrUpstreamUnavailable)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}

func TestKeywordSearch_NumericIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "filter", r.URL.Query().Get("term"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"items":[{"id":1001,"part_number":"FLT-1"}]}`))
	})

	items, err := c.KeywordSearch(context.Background(), "filter", 5, 1)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.FlexString("1001"), items[0].ID)
	assert.Equal(t, model.FlexString("FLT-1"), items[0].PartNumber)
}

func TestGetPricing_SendsBearerAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/pricing", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body model.PricingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "HX123456789", body.Items[0].ItemCode)
		assert.Equal(t, "EA", body.Items[0].Unit)

		_, _ = w.Write([]byte(`{"items":[{"price":549.5,"in_stock":true,"available_quantity":7}]}`))
	})

	items, err := c.GetPricing(context.Background(), "HX123456789", "EA")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 549.5, items[0].Price, 0.001)
	assert.True(t, items[0].InStock)
	assert.Equal(t, 7.0, items[0].AvailableQuantity)
}

func TestGetPricing_FractionalQuantity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"price":12,"in_stock":true,"available_quantity":12.0}]}`))
	})

	items, err := c.GetPricing(context.Background(), "HX123456789", "EA")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 12.0, items[0].AvailableQuantity)
}

func TestVectorSearch_NumericPartNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"product_name":"Skimmer Basket","brand":"Hayward","part_number":12345678,"heritage_link":"/p/1","manufacturer_id":55}]}`))
	})

	products, err := c.VectorSearch(context.Background(), "skimmer basket", 3)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, model.FlexString("12345678"), products[0].PartNumber)
	assert.Equal(t, model.FlexString("55"), products[0].ManufacturerID)
}

func TestGetPricing_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "string detail", body: `{"detail":"Token expired"}`, detail: "Token expired"},
		{name: "structured detail", body: `{"detail":[{"msg":"bad"}]}`, detail: `[{"msg":"bad"}]`},
		{name: "no detail", body: `oops`, detail: "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetPricing(context.Background(), "HX123456789", "EA")

			var perr *PricingError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, http.StatusUnauthorized, perr.Status)
			assert.Equal(t, tt.detail, perr.Detail)
		})
	}
}

func TestSearchStores_Params(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/stores/search", r.URL.Path)
		assert.Equal(t, "33.749", q.Get("latitude"))
		assert.Equal(t, "-84.388", q.Get("longitude"))
		assert.Equal(t, "50", q.Get("radius"))
		assert.Equal(t, "5", q.Get("page_size"))
		assert.Equal(t, "1", q.Get("page"))
		_, _ = w.Write([]byte(`{"stores":[{"name":"Atlanta Central","address":{"street":"1 Main","city":"Atlanta","state":"GA","zip":"30303"},"contact":{"phone":"555","email":"a@b.c"}}]}`))
	})

	stores, err := c.SearchStores(context.Background(), model.StoreQuery{
		Latitude: 33.7490, Longitude: -84.3880, Radius: 50, PageSize: 5, Page: 1,
	})

	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "Atlanta Central", stores[0].Name)
	assert.Nil(t, stores[0].Location)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(model.BackendConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})

	_, err := c.VectorSearch(context.Background(), "slow", 3)

	assert.ErrorIs(t, err, errx.ErrUpstreamUnavailable)
}
