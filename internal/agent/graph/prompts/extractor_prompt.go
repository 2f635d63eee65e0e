package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/extractor_prompt.txt
var extractorSystemPrompt string

// RenderExtractor renders the brand/model extraction conversation.
func RenderExtractor(ctx context.Context, query string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(extractorSystemPrompt),
		schema.UserMessage("{{.query}}"),
	)
	msgs, err := tpl.Format(promptContext(ctx, "ExtractorPrompt"), map[string]any{"query": query})
	if err != nil {
		return nil, fmt.Errorf("extractor prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("extractor prompt render: empty result")
	}
	return msgs, nil
}
