// Package prompts renders the system and user messages for each LLM call.
package prompts

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
)

// promptContext tags ctx so prompt callbacks report name instead of the
// graph node doing the rendering.
func promptContext(ctx context.Context, name string) context.Context {
	return callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	})
}
