package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/poolbot/server/internal/agent/model"
)

// Graph node keys.
const (
	NodeIntentRouter   = "IntentRouter"
	NodeDirectExecutor = "DirectExecutor"
	NodeExtractor      = "Extractor"
	NodeFallbackSearch = "FallbackSearch"
	NodeSummarizer     = "Summarizer"
)

// turnInfo is the slice of AppState that lambdas read.
type turnInfo struct {
	ConversationID string
	Query          string
}

// readTurn copies the fields lambdas need out of the graph local state.
func readTurn(ctx context.Context) (turnInfo, error) {
	var info turnInfo
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
		info = turnInfo{ConversationID: s.ConversationID, Query: s.Query}
		return nil
	})
	return info, err
}
