package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poolbot/server/internal/agent/graph"
	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

const maxTranscriptMessages = 200

// Processor answers one chat message. graph.Runner implements it.
type Processor interface {
	Process(ctx context.Context, in model.QueryInput) string
}

// Transcripts gives operators read and delete access to recorded turns.
type Transcripts interface {
	Transcript(ctx context.Context, conversationID string, maxMessages int) (*model.Transcript, error)
	Count(ctx context.Context, conversationID string) (int, error)
	Forget(ctx context.Context, conversationID string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	agent       Processor
	transcripts Transcripts
}

// NewHandler creates a new HTTP handler
func NewHandler(agent Processor, transcripts Transcripts) *Handler {
	return &Handler{agent: agent, transcripts: transcripts}
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

type messageResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

type transcriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "poolbot",
	})
}

// Start answers the start/help command.
func (h *Handler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reply": graph.WelcomeMessage})
}

// PostMessage runs one chat turn. Agent failures still answer 200 with the apology text.
func (h *Handler) PostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	logx.Info().
		Str("request_id", c.GetString(requestIDKey)).
		Str("conversation_id", req.ConversationID).
		Str("user_id", req.UserID).
		Str("query", req.Text).
		Msg("inbound message")

	reply := h.agent.Process(c.Request.Context(), model.QueryInput{
		ConversationID: req.ConversationID,
		Query:          req.Text,
	})
	c.JSON(http.StatusOK, messageResponse{ConversationID: req.ConversationID, Reply: reply})
}

// GetTranscript returns the recorded turns of a conversation, newest last.
func (h *Handler) GetTranscript(c *gin.Context) {
	id := c.Param("id")
	limit := maxTranscriptMessages
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTranscriptMessages)
	}

	history, err := h.transcripts.Transcript(c.Request.Context(), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.transcripts.Count(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	msgs := make([]transcriptMessage, 0, len(history.Messages))
	for _, m := range history.Messages {
		if m == nil {
			continue
		}
		msgs = append(msgs, transcriptMessage{Role: string(m.Role), Content: m.Content})
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": id,
		"total":           total,
		"messages":        msgs,
	})
}

// DeleteTranscript forgets a conversation.
func (h *Handler) DeleteTranscript(c *gin.Context) {
	if err := h.transcripts.Forget(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	message := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	logx.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Int("status", status).Msg("request failed")
	c.JSON(status, gin.H{"error": message})
}
