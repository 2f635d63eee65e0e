package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides USD pricing per 1M text tokens.
var defaultPricing = map[string]Pricing{
	"gemini-2.5-pro":        {InputPerM: 1.25, OutputPerM: 10.00},
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// ResolvePricing returns the pricing for a model, zero when unknown.
// Provider prefixes such as "models/" are ignored.
func ResolvePricing(model string) Pricing {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(model)), "models/")
	return defaultPricing[name]
}

// UsageCost is the cost of a single LLM call.
type UsageCost struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	InputCostUSD     float64
	OutputCostUSD    float64
	TotalCostUSD     float64
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(model string, usage *schema.TokenUsage) UsageCost {
	if usage == nil {
		return UsageCost{Model: model}
	}
	p := ResolvePricing(model)
	in := p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	out := p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	return UsageCost{
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		InputCostUSD:     in,
		OutputCostUSD:    out,
		TotalCostUSD:     in + out,
	}
}
