// Package app owns the process-wide state: storage, scorer, model and
// retrieval clients, the realtime hub and the background ingester.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/config"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/llm"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/realtime"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

type App struct {
	logger   internal.Logger
	store    storage.Store
	scorer   *scoring.Scorer
	llm      llm.Client
	rag      *rag.Client
	hub      *realtime.Hub
	ingester *service.Ingester
	analyzer *service.Analyzer
	coach    *service.Coach

	closeOnce sync.Once
	closeErr  error
}

// Deps overrides collaborators, mainly for tests. Nil fields are built
// from config.
type Deps struct {
	Store storage.Store
	LLM   llm.Client
}

func New(ctx context.Context, cfg *config.Config, logger internal.Logger) (*App, error) {
	return NewWithDeps(ctx, cfg, logger, Deps{})
}

func NewWithDeps(ctx context.Context, cfg *config.Config, logger internal.Logger, deps Deps) (*App, error) {
	classifier := scoring.FoodClassifier(scoring.DefaultClassifier())
	if cfg.ClassifierFile != "" {
		kc, err := scoring.LoadKeywordClassifier(cfg.ClassifierFile)
		if err != nil {
			return nil, fmt.Errorf("load classifier: %w", err)
		}
		classifier = kc
	}

	store := deps.Store
	if store == nil {
		var err error
		if store, err = storage.New(cfg, logger); err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	client := deps.LLM
	if client == nil {
		var err error
		if client, err = llm.New(ctx, cfg, logger); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init llm client: %w", err)
		}
	}

	scorer := scoring.NewScorer(classifier, cfg.Location())
	relay := rag.NewClient(cfg.RAGServiceURL, cfg.RAGTimeout, logger)
	if !relay.Enabled() {
		logger.Warnf("RAG_SERVICE_URL not set; retrieval features are disabled")
	}

	return &App{
		logger:   logger,
		store:    store,
		scorer:   scorer,
		llm:      client,
		rag:      relay,
		hub:      realtime.NewHub(logger),
		ingester: service.NewIngester(relay, cfg.RAGTimeout, logger),
		analyzer: service.NewAnalyzer(client, logger),
		coach:    service.NewCoach(client, relay, store, scorer, logger),
	}, nil
}

func (a *App) Logger() internal.Logger     { return a.logger }
func (a *App) Store() storage.Store        { return a.store }
func (a *App) Scorer() *scoring.Scorer     { return a.scorer }
func (a *App) RAG() *rag.Client            { return a.rag }
func (a *App) Hub() *realtime.Hub          { return a.hub }
func (a *App) Ingester() *service.Ingester { return a.ingester }
func (a *App) Analyzer() *service.Analyzer { return a.analyzer }
func (a *App) Coach() *service.Coach       { return a.coach }

// Close drains background ingestion, disconnects realtime sessions and
// releases clients and storage, in that order. It is safe to call twice.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.ingester.Close()
		a.closeErr = errors.Join(
			a.hub.Close(),
			a.llm.Close(),
			a.rag.Close(),
			a.store.Close(),
		)
	})
	return a.closeErr
}
