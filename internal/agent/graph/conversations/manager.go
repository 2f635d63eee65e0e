package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/poolbot/server/internal/agent/model"
)

// Recorder writes finished turns to the transcript repository. Routing never
// reads what it writes.
type Recorder struct {
	repo model.TranscriptRepository
}

func NewRecorder(repo model.TranscriptRepository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordTurn appends the user query and the reply sent back for it.
func (r *Recorder) RecordTurn(ctx context.Context, conversationID, query, reply string) error {
	if r == nil || r.repo == nil || strings.TrimSpace(conversationID) == "" {
		return nil
	}
	if err := r.repo.Append(ctx, conversationID, schema.UserMessage(query)); err != nil {
		return err
	}
	return r.repo.Append(ctx, conversationID, schema.AssistantMessage(reply, nil))
}

// Transcript returns the most recent maxMessages of a conversation; all of it when maxMessages <= 0.
func (r *Recorder) Transcript(ctx context.Context, conversationID string, maxMessages int) (*model.Transcript, error) {
	return r.repo.Load(ctx, conversationID, maxMessages)
}

// Count returns how many messages the conversation transcript holds.
func (r *Recorder) Count(ctx context.Context, conversationID string) (int, error) {
	return r.repo.Len(ctx, conversationID)
}

// Forget deletes a conversation transcript.
func (r *Recorder) Forget(ctx context.Context, conversationID string) error {
	return r.repo.Clear(ctx, conversationID)
}
