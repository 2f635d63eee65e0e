package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/poolbot/server/internal/agent/model"
	logx "github.com/poolbot/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey        string
	BaseURL       string
	PlannerConfig *model.PlannerModelConfig
	SummaryConfig *model.SummaryModelConfig
}

// ChatModels holds the deterministic model used for planning and extraction
// and the warmer one used for summaries.
type ChatModels struct {
	Planner          einomodel.BaseChatModel
	Summary          einomodel.BaseChatModel
	PlannerModelName string
	SummaryModelName string
}

// NewChatModels creates both Gemini chat models over one genai client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.PlannerConfig == nil || config.SummaryConfig == nil {
		return nil, fmt.Errorf("chat model config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	planner, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.PlannerConfig.Model,
		Temperature: &config.PlannerConfig.Temperature,
		MaxTokens:   &config.PlannerConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.PlannerConfig.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	summary, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.SummaryConfig.Model,
		Temperature: &config.SummaryConfig.Temperature,
		MaxTokens:   &config.SummaryConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.SummaryConfig.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating summary model")
		return nil, fmt.Errorf("error creating summary model: %w", err)
	}

	return &ChatModels{
		Planner:          planner,
		Summary:          summary,
		PlannerModelName: config.PlannerConfig.Model,
		SummaryModelName: config.SummaryConfig.Model,
	}, nil
}
