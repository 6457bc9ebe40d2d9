package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/tmc/langchaingo/llms"

	"drivethru/internal/config"
	"drivethru/internal/conversation"
	"drivethru/internal/database"
	"drivethru/internal/evaluation"
	"drivethru/internal/intent"
	"drivethru/internal/lane"
	"drivethru/internal/logging"
	"drivethru/internal/menu"
	"drivethru/internal/models"
	"drivethru/internal/monitoring"
	"drivethru/internal/recovery"
	"drivethru/internal/respond"
	"drivethru/internal/sessionlog"
)

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *monitoring.Metrics
	monitor  *monitoring.Monitor
	registry *models.ModelRegistry
	engine   *menu.Engine
	model    llms.Model
	store    sessionlog.Store
	db       *gorm.DB

	// sleep replaces the recovery backoff; tests set it to return at once
	sleep recovery.Sleeper
}

// newApp loads the configuration and builds the menu engine, the model and
// the session log store
func newApp(ctx context.Context, cfgPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logging.New(cfg.Log, logOut),
		metrics:  monitoring.NewMetrics(),
		monitor:  monitoring.NewMonitor(),
		registry: models.NewModelRegistry(cfg.LLM),
	}

	if cfg.LLM.Provider != string(models.ProviderNone) {
		a.model, err = a.registry.GetModel(cfg.LLM.Provider)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}
	}

	embedder, err := a.embedder()
	if err != nil {
		return nil, err
	}

	rec := cfg.Recommendations
	a.engine, err = menu.NewEngine(ctx, menu.DefaultCatalog(), menu.Options{
		Embedder:          embedder,
		CachePath:         cfg.Menu.EmbeddingCache,
		SemanticThreshold: cfg.Menu.SemanticThreshold,
		Recommendations: menu.RecommendationRules{
			DefaultDrink:        rec.DefaultDrink,
			DefaultSide:         rec.DefaultSide,
			DefaultMain:         rec.DefaultMain,
			ValueCombo:          rec.ValueCombo,
			SmallOrderThreshold: rec.SmallOrderThreshold,
		},
		Observer: a.metrics,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build menu engine: %w", err)
	}

	if a.store, err = a.openStore(); err != nil {
		return nil, err
	}

	a.logger.Debug("application initialized",
		"provider", cfg.LLM.Provider,
		"embedder", embedder.Name(),
		"session_log", cfg.SessionLog.Enabled,
	)
	return a, nil
}

func (a *app) embedder() (menu.Embedder, error) {
	if a.cfg.Menu.Embedder != "llm" {
		return menu.NewHashEmbedder(0), nil
	}
	if a.cfg.LLM.Provider == string(models.ProviderNone) {
		return nil, errors.New("menu.embedder llm requires an llm.provider")
	}
	client, err := a.registry.GetEmbedder(a.cfg.LLM.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return menu.NewLLMEmbedder(client, a.cfg.LLM.EmbeddingModel)
}

func (a *app) openStore() (sessionlog.Store, error) {
	sl := a.cfg.SessionLog
	if !sl.Enabled {
		return nil, nil
	}

	switch sl.Driver {
	case "json":
		store, err := sessionlog.NewJSONFileStore(sl.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		dsn := sl.DSN
		if dsn == "" && sl.Driver == database.DriverSQLite {
			dsn = filepath.Join(sl.Dir, "sessions.db")
		}
		db, err := database.Open(sl.Driver, dsn)
		if err != nil {
			return nil, err
		}
		store, err := sessionlog.NewGormStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		return store, nil
	}
}

// newManager builds a conversation manager with a fresh session. With a
// model the LLM classifier runs first and the rule classifier catches its
// failures on low-confidence input.
func (a *app) newManager() (*conversation.Manager, error) {
	cfg := a.cfg
	var (
		classifier intent.Classifier = intent.NewRuleClassifier(a.engine)
		fallback   intent.Classifier
		phraser    *respond.Generator
	)
	if a.model != nil {
		classifier = intent.NewLLMClassifier(a.model, a.engine.Items(), intent.LLMOptions{
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Timeout:      cfg.LLM.Timeout,
			HistoryLines: cfg.Conversation.HistoryWindow,
			Logger:       a.logger,
		})
		fallback = intent.NewRuleClassifier(a.engine)
		phraser = respond.NewGenerator(a.model, respond.Options{
			Timeout: cfg.LLM.Timeout,
			Logger:  a.logger,
		})
	}

	return conversation.NewManager(conversation.Options{
		Menu:       a.engine,
		Classifier: classifier,
		Fallback:   fallback,
		Recovery: recovery.NewHandler(recovery.Options{
			MaxRetries:          cfg.Recovery.MaxRetries,
			EscalationThreshold: cfg.Recovery.EscalationThreshold,
			BaseBackoff:         cfg.Recovery.BaseBackoff,
			MaxBackoff:          cfg.Recovery.MaxBackoff,
			Sleep:               a.sleep,
			Observer:            a.metrics,
			Logger:              a.logger,
		}),
		Repair:  recovery.NewRepair(),
		Phraser: phraser,
		Thresholds: conversation.Thresholds{
			LowConfidence:        cfg.Conversation.LowConfidenceThreshold,
			Match:                cfg.Conversation.MatchThreshold,
			ClarifyBelow:         cfg.Conversation.ClarifyBelow,
			MaxConsecutiveErrors: cfg.Conversation.MaxConsecutiveErrors,
			ClassifierAttempts:   cfg.Conversation.ClassifierAttempts,
			HistoryWindow:        cfg.Conversation.HistoryWindow,
		},
		Observer: a.metrics,
		Logger:   a.logger,
	})
}

// newLane builds the lane served by the API and the chat REPL. The agent
// greets each car first.
func (a *app) newLane() (*lane.Lane, error) {
	manager, err := a.newManager()
	if err != nil {
		return nil, err
	}

	var recorder *sessionlog.Recorder
	if a.store != nil {
		recorder = sessionlog.NewRecorder(a.store)
	}

	greeter := respond.NewGenerator(nil, respond.Options{Logger: a.logger})
	return lane.New(lane.Options{
		Manager:  manager,
		Recorder: recorder,
		Monitor:  a.monitor,
		Greeter:  greeter.Greeting,
		MaxTurns: a.cfg.Conversation.MaxTurns,
		Logger:   a.logger,
	})
}

func (a *app) newEvaluator() *evaluation.Evaluator {
	label := a.cfg.LLM.Provider
	if a.model != nil {
		label += "/" + a.cfg.LLM.Model
	}
	return evaluation.NewEvaluator(a.newManager, evaluation.Options{
		Model:   label,
		Monitor: a.monitor,
		Logger:  a.logger,
	})
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// withTimeout is the deadline for one-shot commands
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Minute)
}
