// Package app wires configuration, collaborators, and the orchestrator into
// a runnable application shared by the CLI, HTTP, and Telegram entry points.
package app

import (
	"context"
	"log"
	"time"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/edit"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/knowledge"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/orchestrator"
	"ai-trip-planner/internal/poi"
	"ai-trip-planner/internal/scheduler"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/travel"
	"ai-trip-planner/internal/trip"
)

const poiCacheTTL = 15 * time.Minute

// App bundles everything a surface needs to serve turns.
type App struct {
	Cfg          *config.Config
	Store        *session.Store
	Orchestrator *orchestrator.Orchestrator
	MetricsStore *metrics.Store
	History      *session.HistoryRepository
	DB           *database.DB

	gemini *llm.GeminiClient
}

// New builds the full collaborator graph from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(time.Duration(cfg.SessionTTLSeconds) * time.Second)

	// Groq classifies (fast, JSON mode); Gemini explains. An OpenAI key swaps
	// the explainer model.
	classifierModel := llm.NewGroqClient(cfg)
	extractor := intent.NewExtractor(classifierModel)

	gemini, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	var explainerModel llm.TextGenerator = gemini
	if cfg.OpenAIAPIKey != "" {
		explainerModel = llm.NewOpenAIClient(cfg)
	}

	var source poi.Source = poi.NewHTTPSource(cfg)
	source = poi.NewCachedSource(source, poiCacheTTL)

	estimator := travel.FallbackEstimator{}
	builder := scheduler.NewBuilder(source, estimator)

	retriever := knowledge.NewHTMLRetriever(cfg.KnowledgeBaseURL)
	explainer := knowledge.NewExplainer(retriever, explainerModel)

	history := session.NewHistoryRepository(db.SQL)
	orch := orchestrator.New(store, extractor, builder, edit.NewEngine(builder), explainer, orchestrator.Defaults{
		City:         cfg.DefaultCity,
		DurationDays: cfg.DefaultDurationDays,
		Pace:         trip.Pace(cfg.DefaultPace),
		Interests:    cfg.DefaultInterests,
	}).WithHistory(history)

	return &App{
		Cfg:          cfg,
		Store:        store,
		Orchestrator: orch,
		MetricsStore: metrics.NewStore(db.SQL),
		History:      history,
		DB:           db,
		gemini:       gemini,
	}, nil
}

// Close releases the collaborator clients and the database.
func (a *App) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			log.Printf("Warning: failed to close Gemini client: %v", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
