package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/handlers"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/services/backup"
	"github.com/ternarybob/litemark/internal/services/batch"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/crawler"
	"github.com/ternarybob/litemark/internal/services/enrichment"
	"github.com/ternarybob/litemark/internal/services/events"
	"github.com/ternarybob/litemark/internal/services/githubstars"
	"github.com/ternarybob/litemark/internal/services/inbox"
	"github.com/ternarybob/litemark/internal/services/kv"
	"github.com/ternarybob/litemark/internal/services/llm"
	"github.com/ternarybob/litemark/internal/services/mcp"
	"github.com/ternarybob/litemark/internal/services/ordering"
	"github.com/ternarybob/litemark/internal/services/scheduler"
	"github.com/ternarybob/litemark/internal/services/tasks"
	"github.com/ternarybob/litemark/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event bus and settings
	EventService interfaces.EventService
	KVService    *kv.Service

	// Bookmarks and ordering
	OrderingService *ordering.Service
	BookmarkService *bookmarks.Service
	Assistant       *bookmarks.Assistant

	// AI enrichment
	LLMService *llm.Service
	Fetcher    *crawler.Fetcher
	Renderer   *crawler.ChromeRenderer
	Operations *enrichment.Operations
	Registry   *tasks.Registry
	Engine     *batch.Engine

	// Backup
	BackupService    *backup.Service
	SchedulerService interfaces.SchedulerService

	// External import sources
	StarsImporter *githubstars.Importer
	InboxService  *inbox.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	BookmarkHandler *handlers.BookmarkHandler
	AIHandler       *handlers.AIHandler
	SettingsHandler *handlers.SettingsHandler
	BackupHandler   *handlers.BackupHandler
	ImportHandler   *handlers.ImportHandler
	WSHandler       *handlers.WebSocketHandler
	MCPHandler      http.Handler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// The WebSocket handler subscribes to the bus, so both exist before any service publishes
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.startScheduler(); err != nil {
		return nil, fmt.Errorf("failed to start backup scheduler: %w", err)
	}
	app.InboxService.StartPolling(common.ParseDurationOr(cfg.Inbox.PollInterval, 0))

	logger.Info().
		Bool("ai_configured", app.LLMService.IsConfigured()).
		Str("storage_path", cfg.Storage.Badger.Path).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order:
// settings, ordering and bookmarks, AI enrichment, batch tasks, backup.
func (a *App) initServices() error {
	ctx := context.Background()

	a.KVService = kv.NewService(a.StorageManager.KeyValueStorage(), a.EventService, a.Config, a.Logger)
	seeded, err := a.KVService.SeedDefaults(ctx, common.GetDefaultKVValues(a.Config))
	if err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}
	a.Logger.Debug().Int("seeded", seeded).Msg("Default settings seeded")

	a.OrderingService = ordering.NewService(
		a.StorageManager.BookmarkStorage(),
		a.StorageManager.CategoryOrderStorage(),
		a.Logger,
	)
	a.BookmarkService = bookmarks.NewService(a.StorageManager.BookmarkStorage(), a.OrderingService, a.Logger)

	// Stored AI settings override the config file
	a.LLMService = llm.NewService(a.Config, a.Logger)
	aiSettings, err := a.KVService.AISettings(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load AI settings, using config file values")
	} else {
		a.LLMService.ApplySettings(aiSettings)
	}

	a.Fetcher = crawler.NewFetcher(a.Config.Crawler, a.Logger)
	if a.Config.Crawler.BrowserFallback {
		a.Renderer = crawler.NewChromeRenderer(a.Config.Crawler, a.Logger)
		a.Fetcher.WithRenderer(a.Renderer)
	}
	summarizer := enrichment.NewSummarizer(a.LLMService, a.Fetcher, a.Logger)
	classifier := enrichment.NewClassifier(a.LLMService, a.Fetcher, a.Logger)
	a.Operations = enrichment.NewOperations(
		enrichment.NewSummarizeOperation(summarizer),
		enrichment.NewClassifyOperation(classifier),
	)
	a.Assistant = bookmarks.NewAssistant(
		a.BookmarkService,
		a.StorageManager.BookmarkStorage(),
		a.Fetcher,
		summarizer,
		classifier,
		a.Logger,
	)

	a.Registry = tasks.NewRegistry(
		a.EventService,
		a.Logger,
		common.ParseDurationOr(a.Config.Tasks.Retention, tasks.DefaultRetention),
	)
	if err := a.Registry.Init(); err != nil {
		return fmt.Errorf("failed to initialize task registry: %w", err)
	}
	a.Engine = batch.NewEngine(
		a.StorageManager.BookmarkStorage(),
		a.OrderingService,
		common.ParseDurationOr(a.Config.Batch.RunTimeout, 0),
		a.Logger,
	)

	a.BackupService = backup.NewService(
		a.StorageManager,
		a.KVService,
		a.EventService,
		backup.NewWebDAVStoreFactory(common.ParseDurationOr(a.Config.Backup.Timeout, 0), a.Logger),
		a.Logger,
	)
	a.SchedulerService = scheduler.NewService(a.BackupService.RunScheduled, a.Logger)

	a.StarsImporter, err = githubstars.NewImporter(a.Config.GitHub, a.BookmarkService, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub importer: %w", err)
	}
	a.InboxService = inbox.NewService(
		a.KVService,
		a.BookmarkService,
		common.ParseDurationOr(a.Config.Inbox.Timeout, 30*time.Second),
		a.Logger,
	)

	if err := a.EventService.Subscribe(interfaces.EventSettingsChanged, a.onSettingsChanged); err != nil {
		return fmt.Errorf("failed to subscribe to settings changes: %w", err)
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.BookmarkHandler = handlers.NewBookmarkHandler(a.BookmarkService, a.OrderingService, a.Logger)
	a.AIHandler = handlers.NewAIHandler(
		a.LLMService,
		a.Assistant,
		a.Operations,
		a.Registry,
		a.Engine,
		a.KVService,
		a.Logger,
	)
	a.SettingsHandler = handlers.NewSettingsHandler(a.KVService, a.Logger)
	a.BackupHandler = handlers.NewBackupHandler(a.BackupService, a.KVService, a.SchedulerService, a.Logger)
	a.ImportHandler = handlers.NewImportHandler(a.StarsImporter, a.InboxService, a.KVService, a.Logger)
	a.MCPHandler = mcp.NewHTTPHandler(a.BookmarkService, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// startScheduler registers the daily backup at the stored time
func (a *App) startScheduler() error {
	cfg, err := a.KVService.WebDAVConfig(context.Background())
	if err != nil {
		return err
	}
	return a.SchedulerService.Start(cfg.BackupTime)
}

// onSettingsChanged re-applies AI settings and moves the backup job when its time changes
func (a *App) onSettingsChanged(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		return nil
	}
	section, _ := payload["section"].(string)

	switch section {
	case "ai":
		settings, err := a.KVService.AISettings(ctx)
		if err != nil {
			return fmt.Errorf("reload AI settings: %w", err)
		}
		a.LLMService.ApplySettings(settings)
		a.Logger.Info().Str("provider", string(a.LLMService.Status().Provider)).Msg("AI settings applied")

	case "webdav":
		cfg, err := a.KVService.WebDAVConfig(ctx)
		if err != nil {
			return fmt.Errorf("reload WebDAV config: %w", err)
		}
		if err := a.SchedulerService.Reschedule(cfg.BackupTime); err != nil {
			return fmt.Errorf("reschedule backup: %w", err)
		}
	}
	return nil
}

// Close stops background work and releases storage. Safe to call once at shutdown.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.InboxService != nil {
		a.InboxService.StopPolling()
	}

	// Batch runs commit their finished items before storage closes
	if a.Engine != nil {
		a.Engine.Shutdown()
	}

	if a.Registry != nil {
		a.Registry.Shutdown()
	}

	if a.Renderer != nil {
		a.Renderer.Close()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
