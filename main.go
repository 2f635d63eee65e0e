package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/poolbot/server/internal/agent/graph"
	"github.com/poolbot/server/internal/agent/graph/conversations"
	"github.com/poolbot/server/internal/agent/model"
	"github.com/poolbot/server/internal/agent/repo"
	"github.com/poolbot/server/internal/core"
	httpDelivery "github.com/poolbot/server/internal/delivery/http"
	logx "github.com/poolbot/server/pkg/logger"
	pkgredis "github.com/poolbot/server/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      core.Environment `envconfig:"APP_ENV" default:"development"`
	HTTPAddr string           `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Planner    model.PlannerModelConfig
	Summary    model.SummaryModelConfig
	Backend    model.BackendConfig
	Store      model.StoreSearchConfig
	Agent      model.AgentConfig
	Transcript model.TranscriptConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var transcripts model.TranscriptRepository = repo.NopTranscriptRepository{}
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		transcripts = repo.NewRedisTranscriptRepository(rdb, cfg.Transcript.TTL)
		logx.Info().Msg("Connected to Redis, transcripts enabled")
	} else {
		logx.Info().Msg("REDIS_URL not set, transcripts disabled")
	}

	runner, err := graph.BuildAgentGraph(ctx, graph.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Planner:     cfg.Planner,
		Summary:     cfg.Summary,
		Backend:     cfg.Backend,
		Store:       cfg.Store,
		Agent:       cfg.Agent,
		Transcripts: transcripts,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build agent graph")
	}

	handler := httpDelivery.NewHandler(runner, conversations.NewRecorder(transcripts))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpDelivery.SetupRouter(cfg.Env, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env.String()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logx.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
	logx.Info().Msg("Server stopped")
}
