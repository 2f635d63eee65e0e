package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/planner_prompt.txt
var plannerSystemPrompt string

// RenderPlanner renders the planning conversation (system + user query) via the
// Eino prompt component so prompt callbacks fire.
func RenderPlanner(ctx context.Context, query string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(plannerSystemPrompt),
		schema.UserMessage("{{.query}}"),
	)
	msgs, err := tpl.Format(promptContext(ctx, "PlannerPrompt"), map[string]any{"query": query})
	if err != nil {
		return nil, fmt.Errorf("planner prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("planner prompt render: empty result")
	}
	return msgs, nil
}
