package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// TranscriptRepository stores chat turns for operators. Routing writes to it
// and never reads it back.
type TranscriptRepository interface {
	Append(ctx context.Context, conversationID string, message *schema.Message) error
	// Load returns the newest limit messages, oldest first; all of them when
	// limit <= 0. A missing conversation yields an empty transcript.
	Load(ctx context.Context, conversationID string, limit int) (*Transcript, error)
	Clear(ctx context.Context, conversationID string) error
	Len(ctx context.Context, conversationID string) (int, error)
}

type Transcript struct {
	ConversationID string
	Messages       []*schema.Message
}
