package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/poolbot/server/internal/core/error"
)

func setupRepo(t *testing.T, ttl time.Duration) (*RedisTranscriptRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisTranscriptRepository(rdb, ttl), mr
}

func TestRedisTranscriptRepository_AddAndLoad(t *testing.T) {
	repo, mr := setupRepo(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "c1", schema.UserMessage("price of SP2610X15")))
	require.NoError(t, repo.Append(ctx, "c1", schema.AssistantMessage("It is $12.50.", nil)))

	history, err := repo.Load(ctx, "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, "c1", history.ConversationID)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, "price of SP2610X15", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)

	assert.True(t, mr.Exists("transcript:c1:messages"))
	assert.Equal(t, time.Hour, mr.TTL("transcript:c1:messages"))

	n, err := repo.Len(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedisTranscriptRepository_LoadNewest(t *testing.T) {
	repo, _ := setupRepo(t, time.Hour)
	ctx := context.Background()
	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Append(ctx, "c5", schema.UserMessage(q)))
	}

	tail, err := repo.Load(ctx, "c5", 2)
	require.NoError(t, err)
	require.Len(t, tail.Messages, 2)
	assert.Equal(t, "two", tail.Messages[0].Content)
	assert.Equal(t, "three", tail.Messages[1].Content)

	all, err := repo.Load(ctx, "c5", 50)
	require.NoError(t, err)
	assert.Len(t, all.Messages, 3)
}

func TestRedisTranscriptRepository_AppendRefreshesTTL(t *testing.T) {
	repo, mr := setupRepo(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "c6", schema.UserMessage("hi")))
	mr.FastForward(40 * time.Minute)
	require.NoError(t, repo.Append(ctx, "c6", schema.AssistantMessage("hello", nil)))

	assert.Equal(t, time.Hour, mr.TTL("transcript:c6:messages"))
	mr.FastForward(50 * time.Minute)
	assert.True(t, mr.Exists("transcript:c6:messages"))
}

func TestRedisTranscriptRepository_NoTTL(t *testing.T) {
	repo, mr := setupRepo(t, 0)

	require.NoError(t, repo.Append(context.Background(), "c2", schema.UserMessage("hi")))

	assert.Zero(t, mr.TTL("transcript:c2:messages"))
}

func TestRedisTranscriptRepository_EmptyAndClear(t *testing.T) {
	repo, _ := setupRepo(t, time.Minute)
	ctx := context.Background()

	history, err := repo.Load(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history.Messages)

	n, err := repo.Len(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Append(ctx, "c3", schema.UserMessage("hi")))
	require.NoError(t, repo.Clear(ctx, "c3"))
	n, err = repo.Len(ctx, "c3")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisTranscriptRepository_CorruptEntry(t *testing.T) {
	repo, mr := setupRepo(t, time.Minute)
	_, err := mr.RPush("transcript:bad:messages", "not-json")
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), "bad", 0)
	assert.ErrorContains(t, err, "unmarshal message at index 0")
}

func TestRedisTranscriptRepository_RedisDown(t *testing.T) {
	repo, mr := setupRepo(t, time.Minute)
	mr.Close()

	err := repo.Append(context.Background(), "c4", schema.UserMessage("hi"))

	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.RedisErrorMessage, appErr.Message)
}

func TestNopTranscriptRepository(t *testing.T) {
	var repo NopTranscriptRepository
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "c", schema.UserMessage("hi")))
	history, err := repo.Load(ctx, "c", 0)
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
	n, err := repo.Len(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, repo.Clear(ctx, "c"))
}
