package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/poolbot/server/internal/agent/executor"
	"github.com/poolbot/server/internal/agent/graph/conversations"
	"github.com/poolbot/server/internal/agent/graph/nodes"
	"github.com/poolbot/server/internal/agent/graph/observers"
	"github.com/poolbot/server/internal/agent/model"
	"github.com/poolbot/server/internal/agent/nlu"
	"github.com/poolbot/server/internal/agent/router"
	"github.com/poolbot/server/internal/backend"
	logx "github.com/poolbot/server/pkg/logger"
)

// Apology is the reply for any turn that ends in an error.
const Apology = "I apologize, but I couldn't find what you're looking for. Could you please try rephrasing your question?"

// WelcomeMessage answers the start/help command.
const WelcomeMessage = "👋 Welcome to the Pool Equipment Search Bot!\n\n" +
	"Simply send me any query about pool equipment, " +
	"and I'll help you find relevant information."

// linear graph: router, executor, optional extractor + fallback search, summarizer
const maxRunSteps = 10

// Runner executes the compiled graph for one inbound message.
type Runner interface {
	// Invoke runs the graph and returns its error, if any.
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
	// Process always returns a reply: the graph output, or Apology on error.
	Process(ctx context.Context, in model.QueryInput) string
}

// Config holds everything needed to compose the agent end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models, the backend client and the services the nodes call.
type Config struct {
	APIKey      string
	BaseURL     string
	Planner     model.PlannerModelConfig
	Summary     model.SummaryModelConfig
	Backend     model.BackendConfig
	Store       model.StoreSearchConfig
	Agent       model.AgentConfig
	Transcripts model.TranscriptRepository
}

// GraphConfig holds the services each node delegates to.
type GraphConfig struct {
	Router     nodes.Router
	Executor   nodes.Executor
	Extractor  nodes.Extractor
	Summarizer nodes.Summarizer
}

// RunnerConfig tunes how a compiled graph is run.
type RunnerConfig struct {
	TurnTimeout time.Duration
	Recorder    *conversations.Recorder
}

// GraphBuilder handles the construction of the agent graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, string]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, string]
	cfg      RunnerConfig
}

// NewRunner wraps a compiled graph.
func NewRunner(runnable compose.Runnable[model.QueryInput, string], cfg RunnerConfig) Runner {
	return &graphRunner{runnable: runnable, cfg: cfg}
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	if r.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TurnTimeout)
		defer cancel()
	}
	return r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
}

func (r *graphRunner) Process(ctx context.Context, in model.QueryInput) string {
	start := time.Now()
	reply, err := r.Invoke(ctx, in)
	if err != nil {
		logx.Error().Err(err).
			Str("conversation_id", in.ConversationID).
			Str("query", in.Query).
			Msg("turn failed, replying with apology")
		reply = Apology
	}

	if err := r.cfg.Recorder.RecordTurn(context.WithoutCancel(ctx), in.ConversationID, in.Query, reply); err != nil {
		logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("failed to record transcript")
	}

	logx.Info().
		Str("conversation_id", in.ConversationID).
		Dur("elapsed", time.Since(start)).
		Bool("apology", err != nil).
		Msg("turn processed")
	return reply
}

// BuildAgentGraph composes chat models, the backend client and the NLU
// services, builds the graph, and returns a Runner.
func BuildAgentGraph(ctx context.Context, cfg Config) (Runner, error) {
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		PlannerConfig: &cfg.Planner,
		SummaryConfig: &cfg.Summary,
	})
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(cfg.Backend)
	exec := executor.New(client, executor.Config{
		ProductLinkBase: cfg.Backend.ProductLinkBase,
		Store:           cfg.Store,
	})

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Router:     router.New(nlu.NewPlanner(cms.Planner)),
		Executor:   exec,
		Extractor:  nlu.NewExtractor(cms.Planner),
		Summarizer: nlu.NewSummarizer(cms.Summary),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().
		Str("planner_model", cms.PlannerModelName).
		Str("summary_model", cms.SummaryModelName).
		Msg("Agent graph built successfully")
	return NewRunner(runnable, RunnerConfig{
		TurnTimeout: cfg.Agent.TurnTimeout,
		Recorder:    conversations.NewRecorder(cfg.Transcripts),
	}), nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, string], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Router == nil || config.Executor == nil || config.Extractor == nil || config.Summarizer == nil {
		return nil, fmt.Errorf("graph services are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, string](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []struct {
		key    string
		lambda *compose.Lambda
		opts   []compose.GraphAddNodeOpt
	}{
		{
			key:    nodes.NodeIntentRouter,
			lambda: nodes.NewIntentRouterNode(b.config.Router),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePreHandler(nodes.NewIntentRouterPreHandler()),
				compose.WithStatePostHandler(nodes.NewIntentRouterPostHandler()),
			},
		},
		{
			key:    nodes.NodeDirectExecutor,
			lambda: nodes.NewDirectExecutorNode(b.config.Executor),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePostHandler(nodes.NewExecutionPostHandler(nodes.NodeDirectExecutor)),
			},
		},
		{
			key:    nodes.NodeExtractor,
			lambda: nodes.NewExtractorNode(b.config.Extractor),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePostHandler(nodes.NewExtractorPostHandler()),
			},
		},
		{
			key:    nodes.NodeFallbackSearch,
			lambda: nodes.NewFallbackSearchNode(b.config.Executor),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePostHandler(nodes.NewExecutionPostHandler(nodes.NodeFallbackSearch)),
			},
		},
		{
			key:    nodes.NodeSummarizer,
			lambda: nodes.NewSummarizerNode(b.config.Summarizer),
		},
	}

	for _, s := range steps {
		opts := append([]compose.GraphAddNodeOpt{compose.WithNodeName(s.key)}, s.opts...)
		if err := b.graph.AddLambdaNode(s.key, s.lambda, opts...); err != nil {
			logx.Error().Err(err).Str("node", s.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeIntentRouter},
		{nodes.NodeIntentRouter, nodes.NodeDirectExecutor},
		{nodes.NodeExtractor, nodes.NodeFallbackSearch},
		{nodes.NodeFallbackSearch, nodes.NodeSummarizer},
		{nodes.NodeSummarizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	fallbackBranch := compose.NewGraphBranch(
		nodes.NewFallbackCondition(),
		map[string]bool{
			nodes.NodeExtractor:  true,
			nodes.NodeSummarizer: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeDirectExecutor, fallbackBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding fallback branch")
		return fmt.Errorf("error adding fallback branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, string], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("PoolAgent"),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
