// Package app wires the pipeline explicitly: config is built once, every
// component receives its dependencies through its constructor, and nothing
// reads ambient state after startup.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lazytrip-backend/internal/budget"
	"github.com/yungbote/lazytrip-backend/internal/clients/openai"
	"github.com/yungbote/lazytrip-backend/internal/clients/rediscache"
	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/domain"
	"github.com/yungbote/lazytrip-backend/internal/graph"
	"github.com/yungbote/lazytrip-backend/internal/planner"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
	"github.com/yungbote/lazytrip-backend/internal/platform/neo4jdb"
	"github.com/yungbote/lazytrip-backend/internal/prompts"
	"github.com/yungbote/lazytrip-backend/internal/retrieval"
)

// PlanRunner is the pipeline surface the HTTP layer depends on.
type PlanRunner interface {
	Run(ctx context.Context, userInput, mode string) (domain.PlanDocument, error)
}

type App struct {
	Log          *logger.Logger
	Cfg          config.Config
	Router       *gin.Engine
	Graph        *neo4jdb.Client
	Cache        *rediscache.Cache
	Orchestrator PlanRunner
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, err
	}

	llm, err := openai.NewClient(cfg.OpenAI, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	graphClient := neo4jdb.New(cfg.Neo4j, log)
	cache := rediscache.New(cfg.Redis, log)

	social := retrieval.NewSocialSource(&cfg, cache, log)
	web := retrieval.NewWebSource(&cfg, cache, log)
	archive := retrieval.NewArchive(cfg.NotesDir, log)

	ingestor := graph.NewIngestor(graphClient, log)
	budgetCalc := budget.NewCalculator(cfg.ExportsDir, log)

	styles, err := prompts.Load()
	if err != nil {
		log.Sync()
		return nil, err
	}

	orchestrator := planner.NewOrchestrator(&cfg, log, llm, social, web, ingestor, budgetCalc, archive, styles)

	app := &App{
		Log:          log,
		Cfg:          cfg,
		Graph:        graphClient,
		Cache:        cache,
		Orchestrator: orchestrator,
	}
	app.Router = newRouter(app)
	return app, nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Graph != nil {
		_ = a.Graph.Close(context.Background())
	}
	a.Cache.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
