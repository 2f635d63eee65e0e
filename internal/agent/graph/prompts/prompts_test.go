package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolbot/server/internal/agent/model"
)

func TestRenderPlanner(t *testing.T) {
	msgs, err := RenderPlanner(context.Background(), "Do you carry Hayward pumps?")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "GET /api/products/{part_number}")
	assert.Contains(t, msgs[0].Content, "PRODUCT_SEARCH, PRODUCT_PRICE, PRODUCT_INFO, STORE_INFO")
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "Do you carry Hayward pumps?", msgs[1].Content)
}

func TestRenderExtractor_KeepsJSONExample(t *testing.T) {
	msgs, err := RenderExtractor(context.Background(), "need a salt cell")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, `"search_query": "Hayward SuperPump"`)
	assert.Equal(t, "need a salt cell", msgs[1].Content)
}

func TestRenderSummary(t *testing.T) {
	raw := "📊 Price: $12.50\n• [More Details](https://example.com/p)"
	msgs, err := RenderSummary(context.Background(), raw, model.IntentProductPrice, "price of SP2610X15")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "keep them exactly as shown")
	human := msgs[1].Content
	assert.Contains(t, human, "Original query: price of SP2610X15")
	assert.Contains(t, human, "Query intent: product_price")
	assert.Contains(t, human, "Raw response: "+raw)
}
