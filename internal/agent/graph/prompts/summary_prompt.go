package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/poolbot/server/internal/agent/model"
)

var (
	//go:embed template/summary_prompt.txt
	summarySystemPrompt string

	//go:embed template/summary_human.txt
	summaryHumanPrompt string
)

// RenderSummary renders the summarization conversation. The intent is shown
// to the model by its wire value, e.g. "product_search".
func RenderSummary(ctx context.Context, raw string, intent model.Intent, query string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(summaryHumanPrompt),
	)
	vars := map[string]any{
		"query":        query,
		"intent":       intent.String(),
		"raw_response": raw,
	}
	msgs, err := tpl.Format(promptContext(ctx, "SummaryPrompt"), vars)
	if err != nil {
		return nil, fmt.Errorf("summary prompt render: %w", err)
	}
	if len(msgs) < 2 {
		return nil, fmt.Errorf("summary prompt render: empty result")
	}
	return msgs, nil
}
