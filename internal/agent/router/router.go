// Package router classifies a query into an intent and its parameters.
package router

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/poolbot/server/internal/agent/graph/parsers"
	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

var partNumberPattern = regexp.MustCompile(`[A-Z0-9]{8,}`)

// Planner is the LLM classifier consulted when the heuristic finds nothing.
type Planner interface {
	Decide(ctx context.Context, query string) (*model.PlannerDecision, error)
}

type Router struct {
	planner Planner
}

func New(planner Planner) *Router {
	return &Router{planner: planner}
}

// MatchPartNumber looks for a run of 8+ letters/digits in the upper-cased query.
// A match is a price lookup when the query mentions "price", product info otherwise.
func MatchPartNumber(query string) (model.Plan, bool) {
	token := partNumberPattern.FindString(strings.ToUpper(query))
	if token == "" {
		return model.Plan{}, false
	}
	if strings.Contains(strings.ToLower(query), "price") {
		return model.PartPlan(model.IntentProductPrice, token, model.SourceHeuristic), true
	}
	return model.PartPlan(model.IntentProductInfo, token, model.SourceHeuristic), true
}

// Detect resolves the plan for query. Only an LLM transport failure is
// returned as an error; anything unusable from the planner becomes a product
// search over the original query.
func (r *Router) Detect(ctx context.Context, query string) (model.Plan, error) {
	if plan, ok := MatchPartNumber(query); ok {
		logx.Debug().Str("intent", plan.Intent.String()).Str("part_number", plan.PartNumber).
			Msg("direct part number match")
		return plan, nil
	}

	decision, err := r.planner.Decide(ctx, query)
	if err != nil {
		if errors.Is(err, errx.ErrUpstreamUnavailable) {
			return model.Plan{}, err
		}
		logx.Warn().Err(err).Msg("planner output unusable, searching with original query")
		return model.SearchPlan(query, model.SourcePlannerFallback), nil
	}

	plan := Resolve(decision, query)
	logx.Debug().
		Str("intent", plan.Intent.String()).
		Str("source", string(plan.Source)).
		Str("reasoning", decision.Reasoning).
		Msg("planner decision resolved")
	return plan, nil
}

// Resolve turns a parsed planner decision into a Plan:
//   - a brand or model parameter forces a product search over those terms
//   - PRODUCT_SEARCH searches the original query
//   - PRODUCT_PRICE / PRODUCT_INFO need a part_number, else they search
//   - anything else passes its parameters through
func Resolve(d *model.PlannerDecision, query string) model.Plan {
	intent, ok := model.ParseIntentKey(d.Intent)
	if !ok {
		return model.SearchPlan(query, model.SourcePlannerFallback)
	}

	_, hasBrand := d.Parameters["brand"]
	_, hasModel := d.Parameters["model"]
	if hasBrand || hasModel {
		terms := parsers.JoinNonEmpty(parsers.StringValue(d.Parameters["brand"]), parsers.StringValue(d.Parameters["model"]))
		if terms == "" {
			terms = query
		}
		return model.SearchPlan(terms, model.SourcePlanner)
	}

	switch intent {
	case model.IntentProductSearch:
		return model.SearchPlan(query, model.SourcePlanner)
	case model.IntentProductPrice, model.IntentProductInfo:
		if v, ok := d.Parameters["part_number"]; ok {
			return model.PartPlan(intent, parsers.StringValue(v), model.SourcePlanner)
		}
		return model.SearchPlan(query, model.SourcePlannerFallback)
	}

	params := make(map[string]string, len(d.Parameters))
	for k, v := range d.Parameters {
		params[k] = parsers.StringValue(v)
	}
	return model.Plan{Intent: intent, Params: params, Source: model.SourcePlanner}
}
