package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/poolbot/server/internal/agent/model"
	logx "github.com/poolbot/server/pkg/logger"
)

// newModelHandler logs each chat model call and its token cost.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", info.Name).Str("type", info.Type)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).Str("user", lastUserContent(input.Messages))
			}
			ev.Msg("model call start")
			return withStart(ctx)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output == nil || output.Message == nil {
				return ctx
			}
			modelName := ""
			if output.Config != nil {
				modelName = output.Config.Model
			}
			var usage *schema.TokenUsage
			if output.Message.ResponseMeta != nil {
				usage = output.Message.ResponseMeta.Usage
			}
			cost := model.ComputeCost(modelName, usage)
			logx.Info().
				Str("component", info.Name).
				Str("model", cost.Model).
				Dur("elapsed", elapsed(ctx)).
				Int("prompt_tokens", cost.PromptTokens).
				Int("completion_tokens", cost.CompletionTokens).
				Int("total_tokens", cost.TotalTokens).
				Float64("input_cost_usd", cost.InputCostUSD).
				Float64("output_cost_usd", cost.OutputCostUSD).
				Float64("total_cost_usd", cost.TotalCostUSD).
				Msg("LLM usage")
			logx.Debug().Str("component", info.Name).Str("assistant", strings.TrimSpace(output.Message.Content)).
				Msg("model call end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", info.Name).Dur("elapsed", elapsed(ctx)).Msg("model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
