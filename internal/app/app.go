// Package app wires configuration into the stores, the model client, the
// retrieval index and the coaching graph shared by the CLI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aaronromeo/swolecoach/internal/config"
	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/llm"
	"github.com/aaronromeo/swolecoach/internal/llm/provider"
	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/prompts"
	"github.com/aaronromeo/swolecoach/internal/retrieval"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Profiles *profile.Store
	History  *history.Store
	Prompts  *prompts.Loader
	Index    *retrieval.Index
	Embedder retrieval.Embedder
	Graph    *pipeline.Graph

	model *llm.Client
}

// NewLogger returns the JSON logger used by every entry point.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Build opens the index and connects the configured provider. A missing API
// key is not fatal: the graph still serves history requests and reports
// routine requests as failed extractions.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Profiles: profile.NewStore(cfg.UsersDir, profile.WithLogger(logger)),
		History:  history.NewStore(cfg.HistoryDir),
		Prompts:  prompts.NewLoader(cfg.PromptsDir),
	}

	p, embedder, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Embedder = embedder

	opts := []llm.LLMClientOption{
		llm.WithProvider(p),
		llm.WithRetries(cfg.LLMRetries),
		llm.WithRetryDelay(cfg.LLMRetryDelay),
		llm.WithModels(cfg.LLMModelExtract, cfg.LLMModelAssemble),
		llm.WithLogger(logger),
	}
	if cfg.Debug {
		opts = append(opts, llm.WithDebug())
	}
	if a.model, err = llm.New(opts...); err != nil {
		logger.Warn("language model unavailable, routine requests will fail", "provider", cfg.LLMProvider, "error", err)
		a.model = nil
	}

	a.Index, err = retrieval.OpenIndex(cfg.RAGIndexPath)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Profiles:          a.Profiles,
		History:           a.History,
		Prompts:           a.Prompts,
		TopK:              cfg.RAGTopK,
		HistoryLimit:      cfg.HistoryQueryLimit,
		MaxSessionMinutes: cfg.DefaultMaxSessionMinutes,
		Debug:             cfg.Debug,
		Logger:            logger,
	}
	if a.model != nil {
		deps.Model = a.model
	}
	if a.Embedder != nil {
		deps.Retriever = retrieval.NewVectorRetriever(a.Index, a.Embedder)
	}
	a.Graph = pipeline.New(deps)
	return a, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, retrieval.Embedder, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		p, err := provider.NewGeminiProvider(ctx, provider.WithGeminiAPIKey(cfg.APIKey()))
		if err != nil {
			return nil, nil, err
		}
		if p.Client() == nil {
			return p, nil, nil
		}
		return p, retrieval.NewGeminiEmbedder(p.Client(), cfg.LLMEmbedModel), nil
	default:
		opts := []provider.OpenAIProviderOption{provider.WithAPIKey(cfg.APIKey())}
		if cfg.OpenaiBaseURL != "" {
			opts = append(opts, provider.WithBaseURL(cfg.OpenaiBaseURL))
		}
		p, err := provider.NewOpenAIProvider(opts...)
		if err != nil {
			return nil, nil, err
		}
		if cfg.APIKey() == "" {
			return p, nil, nil
		}
		return p, retrieval.NewOpenAIEmbedder(p.Client, cfg.LLMEmbedModel), nil
	}
}

// Turn runs one request through the graph, bounded by LLM_TIMEOUT.
func (a *App) Turn(ctx context.Context, req pipeline.Request) pipeline.State {
	if a.Config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.LLMTimeout)
		defer cancel()
	}
	return a.Graph.Run(ctx, req)
}

// BuildIndex embeds REFERENCE_SOURCE into the index.
func (a *App) BuildIndex(ctx context.Context) (retrieval.IndexStats, error) {
	if a.Embedder == nil {
		return retrieval.IndexStats{}, fmt.Errorf("no embedder: set the API key for provider %q", a.Config.LLMProvider)
	}
	return retrieval.Build(ctx, a.Index, a.Embedder, a.Config.ReferenceSource, a.Config.RAGChunkChars, a.Config.RAGMaxSourceBytes, a.Logger)
}

// RecentHistory returns the user's last n entries.
func (a *App) RecentHistory(userID string, n int) ([]history.Entry, error) {
	return a.History.Last(userID, n)
}

// ImportHistory reads a markdown training log and appends its entries.
func (a *App) ImportHistory(ctx context.Context, userID, src string) (imported, skipped int, err error) {
	if a.Config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.LLMTimeout)
		defer cancel()
	}
	raw, err := history.ReadSource(ctx, src, int64(a.Config.LLMMaxFetchBytes))
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", src, err)
	}
	logs, skipped := history.ParseHistoryMarkdown(raw)
	imported, err = a.History.Import(userID, logs)
	return imported, skipped, err
}

func (a *App) Close() error {
	if a.Index == nil {
		return nil
	}
	return a.Index.Close()
}
