package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

// Router resolves the plan for a query.
type Router interface {
	Detect(ctx context.Context, query string) (model.Plan, error)
}

// Executor runs plans and the product search cascade against the backend.
type Executor interface {
	Execute(ctx context.Context, plan model.Plan, originalQuery string) (string, error)
	SearchText(ctx context.Context, query string) (string, model.SearchStrategy, error)
}

type Extractor interface {
	Extract(ctx context.Context, query string) model.Extraction
}

type Summarizer interface {
	Summarize(ctx context.Context, raw string, intent model.Intent, query string) string
}

// NewIntentRouterPreHandler seeds the local state from the graph input.
func NewIntentRouterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.Query = in.Query
		return in, nil
	}
}

// NewIntentRouterNode classifies the query.
func NewIntentRouterNode(r Router) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.Plan, error) {
		plan, err := r.Detect(ctx, in.Query)
		if err != nil {
			return model.Plan{}, fmt.Errorf("detect intent: %w", err)
		}
		return plan, nil
	})
}

func NewIntentRouterPostHandler() func(context.Context, model.Plan, *model.AppState) (model.Plan, error) {
	return func(ctx context.Context, plan model.Plan, s *model.AppState) (model.Plan, error) {
		s.Plan = &plan
		logx.Info().
			Str("conversation_id", s.ConversationID).
			Str("intent", plan.Intent.String()).
			Str("source", string(plan.Source)).
			Str("part_number", plan.PartNumber).
			Str("search_query", plan.SearchQuery).
			Msg("intent detected")
		return plan, nil
	}
}

// NewDirectExecutorNode makes the first attempt at answering. A query-failed
// outcome is not an error here: it becomes a failed Execution that the
// fallback branch picks up.
func NewDirectExecutorNode(exec Executor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan model.Plan) (model.Execution, error) {
		turn, err := readTurn(ctx)
		if err != nil {
			return model.Execution{}, fmt.Errorf("failed to access state: %w", err)
		}

		text, err := exec.Execute(ctx, plan, turn.Query)
		if errors.Is(err, errx.ErrQueryFailed) {
			return model.Execution{Intent: plan.Intent, Failed: true, Reason: err.Error()}, nil
		}
		if err != nil {
			return model.Execution{}, fmt.Errorf("execute %s: %w", plan.Intent, err)
		}
		return model.Execution{Intent: plan.Intent, Text: text}, nil
	})
}

func NewExecutionPostHandler(node string) func(context.Context, model.Execution, *model.AppState) (model.Execution, error) {
	return func(ctx context.Context, out model.Execution, s *model.AppState) (model.Execution, error) {
		s.Execution = &out
		ev := logx.Debug()
		if out.Failed {
			ev = logx.Info()
		}
		ev.Str("conversation_id", s.ConversationID).
			Str("node", node).
			Str("intent", out.Intent.String()).
			Str("strategy", string(out.Strategy)).
			Bool("failed", out.Failed).
			Str("reason", out.Reason).
			Msg("execution finished")
		return out, nil
	}
}

// NewFallbackCondition routes failed direct attempts to extraction.
func NewFallbackCondition() func(context.Context, model.Execution) (string, error) {
	return func(ctx context.Context, in model.Execution) (string, error) {
		if in.Failed {
			logx.Debug().Str("reason", in.Reason).Msg("direct attempt failed, routing to extractor")
			return NodeExtractor, nil
		}
		return NodeSummarizer, nil
	}
}

// NewExtractorNode extracts brand/model search terms from the original query.
func NewExtractorNode(ext Extractor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Execution) (model.Extraction, error) {
		turn, err := readTurn(ctx)
		if err != nil {
			return model.Extraction{}, fmt.Errorf("failed to access state: %w", err)
		}
		return ext.Extract(ctx, turn.Query), nil
	})
}

// NewExtractorPostHandler replaces the failed plan with the extraction's search plan.
func NewExtractorPostHandler() func(context.Context, model.Extraction, *model.AppState) (model.Extraction, error) {
	return func(ctx context.Context, out model.Extraction, s *model.AppState) (model.Extraction, error) {
		query := out.SearchQuery
		if query == "" {
			query = s.Query
		}
		plan := model.SearchPlan(query, model.SourceExtraction)
		s.Extraction = &out
		s.Plan = &plan
		s.Fallback = true
		logx.Info().
			Str("conversation_id", s.ConversationID).
			Str("intent", plan.Intent.String()).
			Str("source", string(plan.Source)).
			Str("brand", out.Brand).
			Str("model", out.Model).
			Str("search_query", plan.SearchQuery).
			Msg("fallback search planned")
		return out, nil
	}
}

// NewFallbackSearchNode reruns the product search cascade with the extracted
// query. Its failures end the turn.
func NewFallbackSearchNode(exec Executor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, ext model.Extraction) (model.Execution, error) {
		query := ext.SearchQuery
		if query == "" {
			turn, err := readTurn(ctx)
			if err != nil {
				return model.Execution{}, fmt.Errorf("failed to access state: %w", err)
			}
			query = turn.Query
		}

		text, strategy, err := exec.SearchText(ctx, query)
		if err != nil {
			return model.Execution{}, fmt.Errorf("fallback search: %w", err)
		}
		return model.Execution{Intent: model.IntentProductSearch, Text: text, Strategy: strategy}, nil
	})
}

// NewSummarizerNode produces the final reply.
func NewSummarizerNode(sum Summarizer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Execution) (string, error) {
		turn, err := readTurn(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		return sum.Summarize(ctx, in.Text, in.Intent, turn.Query), nil
	})
}
