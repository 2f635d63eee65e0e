// Package nlu wraps the three LLM calls of a turn: planning, brand/model
// extraction and summarization.
package nlu

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/poolbot/server/internal/agent/graph/parsers"
	"github.com/poolbot/server/internal/agent/graph/prompts"
	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

// Component names reported to callback handlers.
const (
	NamePlanner    = "Planner"
	NameExtractor  = "Extractor"
	NameSummarizer = "Summarizer"
)

var errEmptyOutput = errors.New("empty model output")

// generate runs one chat call. Handlers registered on ctx see it as a chat
// model component named name, not as the graph node that called it.
func generate(ctx context.Context, chat einomodel.BaseChatModel, name string, msgs []*schema.Message) (string, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})
	out, err := chat.Generate(ctx, msgs)
	if err != nil {
		return "", errx.WrapUpstream(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", errEmptyOutput
	}
	return out.Content, nil
}

// Planner asks the planning model for an intent decision.
type Planner struct {
	chat einomodel.BaseChatModel
}

func NewPlanner(chat einomodel.BaseChatModel) *Planner {
	return &Planner{chat: chat}
}

// Decide returns the parsed planner decision. LLM transport failures come back
// matching errx.ErrUpstreamUnavailable; unusable output matches
// parsers.ErrMalformedResponse.
func (p *Planner) Decide(ctx context.Context, query string) (*model.PlannerDecision, error) {
	msgs, err := prompts.RenderPlanner(ctx, query)
	if err != nil {
		return nil, err
	}
	content, err := generate(ctx, p.chat, NamePlanner, msgs)
	if errors.Is(err, errEmptyOutput) {
		return nil, parsers.ErrMalformedResponse
	}
	if err != nil {
		logx.Error().Err(err).Str("component", NamePlanner).Msg("planner call failed")
		return nil, err
	}
	logx.Debug().Str("component", NamePlanner).Str("content", content).Msg("planner response")
	return parsers.ParsePlannerDecision(content)
}

// Extractor pulls brand and model out of a query the direct attempt could not serve.
type Extractor struct {
	chat einomodel.BaseChatModel
}

func NewExtractor(chat einomodel.BaseChatModel) *Extractor {
	return &Extractor{chat: chat}
}

// Extract never fails: on any error the query itself becomes the search query.
func (e *Extractor) Extract(ctx context.Context, query string) model.Extraction {
	fallback := model.Extraction{SearchQuery: query}

	msgs, err := prompts.RenderExtractor(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Msg("extractor prompt failed")
		return fallback
	}
	content, err := generate(ctx, e.chat, NameExtractor, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("component", NameExtractor).Msg("extraction call failed, using original query")
		return fallback
	}
	out, err := parsers.ParseExtraction(content, query)
	if err != nil {
		logx.Warn().Err(err).Str("component", NameExtractor).Msg("extraction unparsable, using original query")
		return fallback
	}
	logx.Debug().Str("brand", out.Brand).Str("model", out.Model).Str("search_query", out.SearchQuery).
		Msg("extracted product info")
	return out
}

// Summarizer rewrites templated answers conversationally.
type Summarizer struct {
	chat einomodel.BaseChatModel
}

func NewSummarizer(chat einomodel.BaseChatModel) *Summarizer {
	return &Summarizer{chat: chat}
}

// Summarize returns raw unchanged when the model fails or answers with nothing.
func (s *Summarizer) Summarize(ctx context.Context, raw string, intent model.Intent, query string) string {
	msgs, err := prompts.RenderSummary(ctx, raw, intent, query)
	if err != nil {
		logx.Warn().Err(err).Msg("summary prompt failed")
		return raw
	}
	content, err := generate(ctx, s.chat, NameSummarizer, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("component", NameSummarizer).Msg("summarization failed, returning raw text")
		return raw
	}
	return strings.TrimSpace(content)
}
