package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolbot/server/internal/agent/model"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json tag", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "inline fence", in: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```JSON\n{\"a\":1}```\n ", want: `{"a":1}`},
		{name: "only trailing fence", in: "{\"a\":1}\n```", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestParsePlannerDecision_Valid(t *testing.T) {
	content := "```json\n" + `{
		"intent": "PRODUCT_PRICE",
		"api_endpoint": "/api/pricing",
		"parameters": {"part_number": "SP2610X15", "quantity": 2},
		"reasoning": "customer asks for a price"
	}` + "\n```"

	d, err := ParsePlannerDecision(content)

	require.NoError(t, err)
	assert.Equal(t, "PRODUCT_PRICE", d.Intent)
	assert.Equal(t, "/api/pricing", d.APIEndpoint)
	assert.Equal(t, "SP2610X15", d.Parameters["part_number"])
	assert.Equal(t, "customer asks for a price", d.Reasoning)
}

func TestParsePlannerDecision_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "I think you want a pump"},
		{name: "empty", content: "   "},
		{name: "unknown intent", content: `{"intent":"ORDER_STATUS","parameters":{}}`},
		{name: "missing intent", content: `{"parameters":{}}`},
		{name: "missing parameters", content: `{"intent":"PRODUCT_SEARCH"}`},
		{name: "null parameters", content: `{"intent":"PRODUCT_SEARCH","parameters":null}`},
		{name: "parameters not object", content: `{"intent":"PRODUCT_SEARCH","parameters":"pump"}`},
		{name: "intent not string", content: `{"intent":3,"parameters":{}}`},
		{name: "oversized", content: `{"intent":"PRODUCT_SEARCH","parameters":{"q":"` + strings.Repeat("a", maxContentLen) + `"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParsePlannerDecision(tt.content)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    model.Extraction
	}{
		{
			name:    "full answer in fence",
			content: "```json\n{\"brand\":\" Hayward \",\"model\":\"SuperPump\",\"search_query\":\"Hayward SuperPump\"}\n```",
			want:    model.Extraction{Brand: "Hayward", Model: "SuperPump", SearchQuery: "Hayward SuperPump"},
		},
		{
			name:    "search query rebuilt from brand and model",
			content: `{"brand":"Pentair","model":"IntelliFlo","search_query":""}`,
			want:    model.Extraction{Brand: "Pentair", Model: "IntelliFlo", SearchQuery: "Pentair IntelliFlo"},
		},
		{
			name:    "only model",
			content: `{"brand":null,"model":"salt cell"}`,
			want:    model.Extraction{Model: "salt cell", SearchQuery: "salt cell"},
		},
		{
			name:    "nothing extracted falls back to query",
			content: `{}`,
			want:    model.Extraction{SearchQuery: "do you sell this thing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.content, "do you sell this thing")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExtraction_Malformed(t *testing.T) {
	_, err := ParseExtraction("brand: Hayward", "q")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "", StringValue(nil))
	assert.Equal(t, "abc", StringValue("  abc "))
	assert.Equal(t, "1500", StringValue(float64(1500)))
	assert.Equal(t, "2.5", StringValue(2.5))
	assert.Equal(t, "true", StringValue(true))
	assert.Equal(t, `["a"]`, StringValue([]any{"a"}))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "Hayward SuperPump", JoinNonEmpty("Hayward", " ", "SuperPump"))
	assert.Equal(t, "", JoinNonEmpty("", "  "))
}
