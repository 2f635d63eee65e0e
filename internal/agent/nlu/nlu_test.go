package nlu

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolbot/server/internal/agent/graph/parsers"
	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
)

type fakeChat struct {
	content string
	err     error
	inputs  [][]*schema.Message
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChat) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestPlanner_Decide(t *testing.T) {
	chat := &fakeChat{content: "```json\n{\"intent\":\"STORE_INFO\",\"api_endpoint\":\"/api/stores/search\",\"parameters\":{\"city\":\"Atlanta\"},\"reasoning\":\"store\"}\n```"}

	d, err := NewPlanner(chat).Decide(context.Background(), "stores near Atlanta")

	require.NoError(t, err)
	assert.Equal(t, "STORE_INFO", d.Intent)
	assert.Equal(t, "Atlanta", d.Parameters["city"])
	require.Len(t, chat.inputs, 1)
	assert.Equal(t, "stores near Atlanta", chat.inputs[0][1].Content)
}

func TestPlanner_TransportErrorIsUpstream(t *testing.T) {
	chat := &fakeChat{err: errors.New("connection reset")}

	_, err := NewPlanner(chat).Decide(context.Background(), "pumps")

	assert.ErrorIs(t, err, errx.ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, parsers.ErrMalformedResponse)
}

func TestPlanner_MalformedOutput(t *testing.T) {
	for _, content := range []string{"", "sure, here you go", `{"intent":"REFUND","parameters":{}}`} {
		_, err := NewPlanner(&fakeChat{content: content}).Decide(context.Background(), "pumps")
		assert.ErrorIs(t, err, parsers.ErrMalformedResponse, content)
	}
}

func TestExtractor_Extract(t *testing.T) {
	chat := &fakeChat{content: "```json\n{\"brand\":\"Hayward\",\"model\":\"SuperPump\",\"search_query\":\"\"}\n```"}

	got := NewExtractor(chat).Extract(context.Background(), "Do you have Hayward SuperPumps?")

	assert.Equal(t, model.Extraction{Brand: "Hayward", Model: "SuperPump", SearchQuery: "Hayward SuperPump"}, got)
}

func TestExtractor_FallsBackToQuery(t *testing.T) {
	want := model.Extraction{SearchQuery: "nonexistent widget"}

	assert.Equal(t, want, NewExtractor(&fakeChat{err: errors.New("boom")}).Extract(context.Background(), "nonexistent widget"))
	assert.Equal(t, want, NewExtractor(&fakeChat{content: "no json here"}).Extract(context.Background(), "nonexistent widget"))
	assert.Equal(t, want, NewExtractor(&fakeChat{content: "  "}).Extract(context.Background(), "nonexistent widget"))
}

func TestSummarizer_Summarize(t *testing.T) {
	chat := &fakeChat{content: "  The SuperPump costs $12.50.  "}

	got := NewSummarizer(chat).Summarize(context.Background(), "raw", model.IntentProductPrice, "price?")

	assert.Equal(t, "The SuperPump costs $12.50.", got)
	require.Len(t, chat.inputs, 1)
	assert.Contains(t, chat.inputs[0][1].Content, "Query intent: product_price")
}

func TestSummarizer_ReturnsRawOnFailure(t *testing.T) {
	raw := "🔹 Part Number: R173217\n   ID: 9\n\n"

	assert.Equal(t, raw, NewSummarizer(&fakeChat{err: errors.New("quota")}).Summarize(context.Background(), raw, model.IntentProductSearch, "q"))
	assert.Equal(t, raw, NewSummarizer(&fakeChat{content: "\n"}).Summarize(context.Background(), raw, model.IntentProductSearch, "q"))
}
