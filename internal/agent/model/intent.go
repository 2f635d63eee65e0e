package model

import "strings"

// Intent is the classified purpose of a user query.
type Intent string

const (
	IntentProductSearch Intent = "product_search"
	IntentProductPrice  Intent = "product_price"
	IntentProductInfo   Intent = "product_info"
	IntentStoreInfo     Intent = "store_info"
	IntentUnknown       Intent = "unknown"
)

// intentKeys maps the upper-case names the planner answers with.
var intentKeys = map[string]Intent{
	"PRODUCT_SEARCH": IntentProductSearch,
	"PRODUCT_PRICE":  IntentProductPrice,
	"PRODUCT_INFO":   IntentProductInfo,
	"STORE_INFO":     IntentStoreInfo,
	"UNKNOWN":        IntentUnknown,
}

func (i Intent) String() string {
	return string(i)
}

// ParseIntentKey resolves a planner intent name such as "PRODUCT_SEARCH".
func ParseIntentKey(key string) (Intent, bool) {
	it, ok := intentKeys[strings.ToUpper(strings.TrimSpace(key))]
	return it, ok
}

// PlanSource records which classifier produced a Plan.
type PlanSource string

const (
	SourceHeuristic       PlanSource = "heuristic"
	SourcePlanner         PlanSource = "planner"
	SourcePlannerFallback PlanSource = "planner_fallback"
	SourceExtraction      PlanSource = "extraction"
)

// Plan is an intent paired with the parameters its handler reads.
//   - PartNumber: PRODUCT_INFO, PRODUCT_PRICE
//   - SearchQuery: PRODUCT_SEARCH
//   - Params: raw planner parameters for pass-through intents (STORE_INFO, UNKNOWN)
type Plan struct {
	Intent      Intent
	PartNumber  string
	SearchQuery string
	Params      map[string]string
	Source      PlanSource
}

// SearchPlan builds a PRODUCT_SEARCH plan.
func SearchPlan(query string, source PlanSource) Plan {
	return Plan{Intent: IntentProductSearch, SearchQuery: query, Source: source}
}

// PartPlan builds a PRODUCT_INFO or PRODUCT_PRICE plan.
func PartPlan(intent Intent, partNumber string, source PlanSource) Plan {
	return Plan{Intent: intent, PartNumber: partNumber, Source: source}
}

// PlannerDecision is the JSON object the planning model answers with.
type PlannerDecision struct {
	Intent      string         `json:"intent"`
	APIEndpoint string         `json:"api_endpoint"`
	Parameters  map[string]any `json:"parameters"`
	Reasoning   string         `json:"reasoning"`
}

// Extraction is the brand/model triple pulled out of a failed query.
type Extraction struct {
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	SearchQuery string `json:"search_query"`
}
