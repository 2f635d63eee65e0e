package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string or number. The backend is not consistent
// about identifier types across its search providers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Product is a record from GET /api/products/{part_number} and vector search.
type Product struct {
	ProductName    string     `json:"product_name"`
	Brand          string     `json:"brand"`
	PartNumber     FlexString `json:"part_number"`
	Description    string     `json:"description,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	HeritageLink   string     `json:"heritage_link"`
	ManufacturerID FlexString `json:"manufacturer_id"`
}

// KeywordItem is a hit from the keyword search endpoint.
type KeywordItem struct {
	ID         FlexString `json:"id"`
	PartNumber FlexString `json:"part_number"`
}

// PricingItemRequest is one line of a POST /api/pricing body.
type PricingItemRequest struct {
	ItemCode string `json:"item_code"`
	Unit     string `json:"unit"`
}

// PricingRequest is the POST /api/pricing body.
type PricingRequest struct {
	Items []PricingItemRequest `json:"items"`
}

// PriceItem is one line of a pricing response.
type PriceItem struct {
	Price             float64 `json:"price"`
	InStock           bool    `json:"in_stock"`
	AvailableQuantity float64 `json:"available_quantity,omitempty"`
}

type StoreAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type StoreContact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type StoreLocation struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Distance  float64 `json:"distance,omitempty"`
}

type StoreDayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Store is a result of the store search endpoint.
type Store struct {
	Name     string                   `json:"name"`
	Address  StoreAddress             `json:"address"`
	Contact  StoreContact             `json:"contact"`
	Location *StoreLocation           `json:"location,omitempty"`
	Hours    map[string]StoreDayHours `json:"hours,omitempty"`
}

// StoreQuery is the geographic filter sent to the store search endpoint.
type StoreQuery struct {
	Latitude  float64
	Longitude float64
	Radius    float64
	PageSize  int
	Page      int
}

// SearchStrategy tags which step of the product search cascade produced a result.
type SearchStrategy string

const (
	StrategyExactLookup    SearchStrategy = "exact_lookup"
	StrategyVectorStripped SearchStrategy = "vector_stripped"
	StrategyVectorOriginal SearchStrategy = "vector_original"
	StrategyKeyword        SearchStrategy = "keyword"
)

// SearchResult holds the hits of a single cascade step. Products is filled for
// exact and vector strategies, KeywordItems for the keyword strategy.
type SearchResult struct {
	Strategy     SearchStrategy
	Products     []Product
	KeywordItems []KeywordItem
}
