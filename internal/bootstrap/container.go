package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"ai-docedit-be/internal/config"
	"ai-docedit-be/internal/constant"
	"ai-docedit-be/internal/handler"
	"ai-docedit-be/internal/pkg/logger"
	"ai-docedit-be/internal/repository/contract"
	"ai-docedit-be/internal/repository/implementation"
	"ai-docedit-be/internal/repository/memory"
	"ai-docedit-be/internal/service"
	"ai-docedit-be/internal/websocket"
	"ai-docedit-be/pkg/content/evaluate"
	"ai-docedit-be/pkg/content/pipeline"
	"ai-docedit-be/pkg/content/validate"
	"ai-docedit-be/pkg/correlation"
	"ai-docedit-be/pkg/database"
	"ai-docedit-be/pkg/llm/factory"

	pktNats "ai-docedit-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// ArchiveTopic is the in-process topic carrying applied revisions from the
// orchestrator to the archiver.
const ArchiveTopic = "archive.revision"

type Container struct {
	EditorHandler *handler.EditorHandler
	WebSocketHub  *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ArchiverService service.IArchiverService
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// Postgres: revision history only. A missing DSN or connect failure
	// degrades to an ephemeral server rather than refusing to start.
	var revisionRepo contract.RevisionRepository
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Printf("[WARN] Failed to connect to Postgres: %v (revision history disabled)", err)
		} else {
			revisionRepo = implementation.NewRevisionRepository(db)
		}
	} else {
		log.Printf("[INFO] DB_CONNECTION_STRING not set, revision history disabled")
	}

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, natsPub, wsLogger)
	go wsHub.Run()

	// 3. Generation Pipeline
	genLog := log.New(os.Stdout, "[generation] ", log.LstdFlags)
	contentValidator := validate.NewValidator(constant.AllowedTags, constant.ForbiddenTags)
	contentEvaluator := evaluate.NewEvaluator(llmProvider, constant.EvaluatorPrompt, constant.GenerationRules)
	pipe := pipeline.NewPipeline(llmProvider, contentValidator, contentEvaluator, pipeline.Config{
		AcceptanceThreshold: cfg.Generation.AcceptanceThreshold,
		MaxAttempts:         cfg.Generation.MaxAttempts,
		ExcerptCharLimit:    cfg.Generation.DocExcerptCharLimit,
		DraftPrompt:         constant.DraftPrompt,
		Rules:               constant.GenerationRules,
	}, genLog)

	registry := correlation.NewRegistry(
		time.Duration(cfg.Generation.ToolCallTimeoutSeconds) * time.Second,
	)

	// 4. Services
	editorService := service.NewEditorService(
		llmProvider,
		pipe,
		registry,
		pubSub,
		ArchiveTopic,
		cfg.Generation,
		sysLogger,
		genLog,
	)

	archiverService := service.NewArchiverService(
		pubSub,
		ArchiveTopic,
		revisionRepo,
		natsPub,
		wsHub,
	)

	// 5. WebSocket Gateway & Handler
	sessionRepo := memory.NewSessionRepository()
	gateway := websocket.NewGateway(wsHub, editorService, sessionRepo, cfg.Generation.BridgeBufferSize, wsLogger)
	editorHandler := handler.NewEditorHandler(gateway, revisionRepo, sysLogger)

	return &Container{
		EditorHandler:   editorHandler,
		WebSocketHub:    wsHub,
		ArchiverService: archiverService,
	}
}
