package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poolbot/server/internal/agent/model"
	"github.com/poolbot/server/internal/backend"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

const (
	vectorSearchLimit   = 3
	keywordSearchSize   = 5
	pricingUnit         = "EA"
	firstPage           = 1
	defaultStorePageLen = 5
)

// Catalog is the backend surface the executor needs. *backend.Client implements it.
type Catalog interface {
	GetProduct(ctx context.Context, partNumber string) (*model.Product, error)
	VectorSearch(ctx context.Context, query string, limit int) ([]model.Product, error)
	KeywordSearch(ctx context.Context, term string, pageSize, page int) ([]model.KeywordItem, error)
	GetPricing(ctx context.Context, itemCode, unit string) ([]model.PriceItem, error)
	SearchStores(ctx context.Context, q model.StoreQuery) ([]model.Store, error)
}

// Config holds executor settings.
type Config struct {
	ProductLinkBase string
	Store           model.StoreSearchConfig
}

// Executor runs a Plan against the backend and renders the answer text.
type Executor struct {
	catalog  Catalog
	renderer *Renderer
	store    model.StoreSearchConfig
}

func New(catalog Catalog, cfg Config) *Executor {
	if cfg.Store.PageSize <= 0 {
		cfg.Store.PageSize = defaultStorePageLen
	}
	return &Executor{
		catalog:  catalog,
		renderer: NewRenderer(cfg.ProductLinkBase),
		store:    cfg.Store,
	}
}

// Execute runs the handler for plan.Intent. It returns an error matching
// errx.ErrQueryFailed when the backend has nothing usable; transport errors
// propagate unchanged.
func (e *Executor) Execute(ctx context.Context, plan model.Plan, originalQuery string) (string, error) {
	switch plan.Intent {
	case model.IntentProductInfo:
		if plan.PartNumber == "" {
			return "", errx.QueryFailed("no part number found for product info query")
		}
		return e.productInfo(ctx, plan.PartNumber)

	case model.IntentProductPrice:
		if plan.PartNumber == "" {
			return "", errx.QueryFailed("no part number found for price query")
		}
		return e.price(ctx, plan.PartNumber)

	case model.IntentProductSearch:
		query := plan.SearchQuery
		if query == "" {
			query = originalQuery
		}
		text, _, err := e.SearchText(ctx, query)
		return text, err

	case model.IntentStoreInfo:
		return e.stores(ctx)
	}
	return "", errx.QueryFailed("unknown query intent %q", plan.Intent)
}

func (e *Executor) productInfo(ctx context.Context, partNumber string) (string, error) {
	product, err := e.catalog.GetProduct(ctx, partNumber)
	if errors.Is(err, backend.ErrProductNotFound) {
		return "", errx.QueryFailed("couldn't find information for part number %s", partNumber)
	}
	if err != nil {
		return "", err
	}
	return e.renderer.ProductInfo(product), nil
}

// price resolves the product first; pricing failures become inline text, not errors.
func (e *Executor) price(ctx context.Context, partNumber string) (string, error) {
	product, err := e.catalog.GetProduct(ctx, partNumber)
	if errors.Is(err, backend.ErrProductNotFound) {
		return "", errx.QueryFailed("couldn't find product with part number %s", partNumber)
	}
	if err != nil {
		return "", err
	}

	items, err := e.catalog.GetPricing(ctx, partNumber, pricingUnit)
	if err != nil {
		logx.Warn().Err(err).Str("part_number", partNumber).Msg("pricing lookup failed")
		return fmt.Sprintf(msgPricingUnavailable, pricingErrorDetail(err)), nil
	}
	if len(items) == 0 {
		return msgNoPricing, nil
	}
	return e.renderer.Price(product, partNumber, items[0]), nil
}

func pricingErrorDetail(err error) string {
	var perr *backend.PricingError
	if errors.As(err, &perr) {
		return perr.Detail
	}
	return errx.UpstreamErrorMessage
}

// SearchText runs the search cascade and renders the winning step.
func (e *Executor) SearchText(ctx context.Context, query string) (string, model.SearchStrategy, error) {
	res, err := e.Search(ctx, query)
	if err != nil {
		return "", "", err
	}
	return e.renderer.Search(res), res.Strategy, nil
}

// Search walks the cascade in strict order and stops at the first step with hits:
// exact lookup of the whitespace-stripped query, vector search of the stripped
// query, vector search of the original query, keyword search.
func (e *Executor) Search(ctx context.Context, query string) (model.SearchResult, error) {
	stripped := strings.Join(strings.Fields(query), "")
	logx.Debug().Str("query", query).Str("stripped", stripped).Msg("searching products")

	if stripped != "" {
		product, err := e.catalog.GetProduct(ctx, stripped)
		switch {
		case err == nil:
			logx.Debug().Str("part_number", stripped).Msg("exact model number match")
			return model.SearchResult{Strategy: model.StrategyExactLookup, Products: []model.Product{*product}}, nil
		case errors.Is(err, backend.ErrProductNotFound):
			logx.Debug().Str("part_number", stripped).Msg("no exact model match")
		default:
			logx.Warn().Err(err).Str("part_number", stripped).Msg("exact lookup failed, continuing cascade")
		}
	}

	items, err := e.catalog.VectorSearch(ctx, stripped, vectorSearchLimit)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(items) > 0 {
		return model.SearchResult{Strategy: model.StrategyVectorStripped, Products: items}, nil
	}

	logx.Debug().Str("query", query).Msg("no results with stripped query, trying original")
	items, err = e.catalog.VectorSearch(ctx, query, vectorSearchLimit)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(items) > 0 {
		return model.SearchResult{Strategy: model.StrategyVectorOriginal, Products: items}, nil
	}

	logx.Debug().Str("query", query).Msg("no vector results, falling back to keyword search")
	hits, err := e.catalog.KeywordSearch(ctx, query, keywordSearchSize, firstPage)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(hits) > 0 {
		return model.SearchResult{Strategy: model.StrategyKeyword, KeywordItems: hits}, nil
	}

	return model.SearchResult{}, errx.QueryFailed("no products found matching %q", query)
}

// stores always searches the configured coordinate; the query text does not move it.
func (e *Executor) stores(ctx context.Context) (string, error) {
	q := model.StoreQuery{
		Latitude:  e.store.Latitude,
		Longitude: e.store.Longitude,
		Radius:    e.store.Radius,
		PageSize:  e.store.PageSize,
		Page:      firstPage,
	}
	logx.Debug().Float64("latitude", q.Latitude).Float64("longitude", q.Longitude).
		Msg("store search uses the configured default location")

	stores, err := e.catalog.SearchStores(ctx, q)
	if err != nil {
		return "", err
	}
	if len(stores) == 0 {
		return "", errx.QueryFailed("no store information available")
	}
	return e.renderer.Stores(stores), nil
}
