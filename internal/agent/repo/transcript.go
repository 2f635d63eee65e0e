package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

// RedisTranscriptRepository stores each conversation as a Redis list of
// JSON-encoded messages whose TTL is refreshed on every write.
type RedisTranscriptRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTranscriptRepository(rdb redis.Cmdable, ttl time.Duration) *RedisTranscriptRepository {
	return &RedisTranscriptRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisTranscriptRepository) transcriptKey(conversationID string) string {
	return fmt.Sprintf("transcript:%s:messages", conversationID)
}

func (r *RedisTranscriptRepository) Append(ctx context.Context, conversationID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.transcriptKey(conversationID)

	// push and TTL refresh run in one MULTI
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append message to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTranscriptRepository) Load(ctx context.Context, conversationID string, limit int) (*model.Transcript, error) {
	key := r.transcriptKey(conversationID)

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	rows, err := r.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to load transcript from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.Transcript{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *RedisTranscriptRepository) Clear(ctx context.Context, conversationID string) error {
	key := r.transcriptKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete transcript from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTranscriptRepository) Len(ctx context.Context, conversationID string) (int, error) {
	key := r.transcriptKey(conversationID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.TranscriptRepository = (*RedisTranscriptRepository)(nil)

// NopTranscriptRepository is used when no Redis URL is configured.
type NopTranscriptRepository struct{}

func (NopTranscriptRepository) Append(context.Context, string, *schema.Message) error { return nil }

func (NopTranscriptRepository) Load(_ context.Context, conversationID string, _ int) (*model.Transcript, error) {
	return &model.Transcript{ConversationID: conversationID, Messages: []*schema.Message{}}, nil
}

func (NopTranscriptRepository) Clear(context.Context, string) error { return nil }

func (NopTranscriptRepository) Len(context.Context, string) (int, error) { return 0, nil }

var _ model.TranscriptRepository = NopTranscriptRepository{}
