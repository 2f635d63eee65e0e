package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/poolbot/server/pkg/logger"
)

type startKey struct{}

func withStart(ctx context.Context) context.Context {
	return context.WithValue(ctx, startKey{}, time.Now())
}

func elapsed(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// newNodeHandler logs graph node lifecycles with their duration.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			logx.Debug().Str("node", info.Name).Str("component", string(info.Component)).Msg("node start")
			return withStart(ctx)
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Debug().Str("node", info.Name).Dur("elapsed", elapsed(ctx)).Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("node", info.Name).Dur("elapsed", elapsed(ctx)).Msg("node failed")
			return ctx
		}).
		Build()
}

// NewAllCallbacks aggregates the node, model and prompt observers into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Lambda(newNodeHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}
