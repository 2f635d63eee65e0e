package model

// AppState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState, so each
//     Invoke gets a fresh value and nothing is shared between messages.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which Eino serializes.
type AppState struct {
	ConversationID string
	Query          string
	Plan           *Plan       // set after intent routing
	Execution      *Execution  // last executor outcome
	Extraction     *Extraction // set only on the fallback path
	Fallback       bool
}

// QueryInput is the graph input for one inbound chat message.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Execution is the executor's outcome as it moves between graph nodes.
type Execution struct {
	Intent   Intent
	Text     string
	Failed   bool
	Reason   string
	Strategy SearchStrategy
}
