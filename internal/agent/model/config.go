package model

import "time"

// ================ Config ================
type PlannerModelConfig struct {
	Model          string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"PLANNER_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"PLANNER_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"PLANNER_THINKING_BUDGET" default:"0"`
}

type SummaryModelConfig struct {
	Model          string  `envconfig:"SUMMARY_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"SUMMARY_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"SUMMARY_TEMPERATURE" default:"0.3"`
	ThinkingBudget int32   `envconfig:"SUMMARY_THINKING_BUDGET" default:"0"`
}

type BackendConfig struct {
	BaseURL         string        `envconfig:"QUERY_API_URL" required:"true"`
	PricingToken    string        `envconfig:"PRICING_TOKEN"`
	Timeout         time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	ProductLinkBase string        `envconfig:"PRODUCT_LINK_BASE" default:"https://www.heritagepoolplus.com"`
}

// StoreSearchConfig is the coordinate STORE_INFO searches around. The query
// text never moves it.
type StoreSearchConfig struct {
	Latitude  float64 `envconfig:"STORE_DEFAULT_LATITUDE" default:"33.7490"`
	Longitude float64 `envconfig:"STORE_DEFAULT_LONGITUDE" default:"-84.3880"`
	Radius    float64 `envconfig:"STORE_DEFAULT_RADIUS" default:"50"`
	PageSize  int     `envconfig:"STORE_PAGE_SIZE" default:"5"`
}

type AgentConfig struct {
	TurnTimeout time.Duration `envconfig:"AGENT_TURN_TIMEOUT" default:"60s"`
}

type TranscriptConfig struct {
	TTL time.Duration `envconfig:"TRANSCRIPT_TTL" default:"24h"`
}
