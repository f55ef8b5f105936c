package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-assistant/internal/api/http"
	"github.com/spec-kit/support-assistant/internal/api/http/handlers"
	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/engine"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/knowledge"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/persistence"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/internal/session"
	"github.com/spec-kit/support-assistant/internal/ticket"
	"github.com/spec-kit/support-assistant/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisConn *persistence.Redis
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		redisConn = persistence.NewRedis(cfg.Redis, logger)
		defer redisConn.Close()
		sessions = session.NewRedisStore(redisConn.Client, cfg.Session.KeyPrefix, cfg.Session.TTL())
	default:
		sessions = session.NewMemoryStore()
	}
	defer sessions.Close() //nolint:errcheck

	kb := knowledge.NewBase(knowledge.DefaultEntries())
	if cfg.Support.FAQPath != "" {
		loaded, err := knowledge.LoadFile(cfg.Support.FAQPath)
		if err != nil {
			logger.Warn("failed to load faq table, using built-in entries",
				zap.String("path", cfg.Support.FAQPath), zap.Error(err))
		} else {
			kb = loaded
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	ticketStore := ticket.NewStore(ticket.Config{
		IDPrefix:        cfg.Support.TicketIDPrefix,
		InProgressAfter: cfg.Support.InProgressAfter(),
		AwaitingAfter:   cfg.Support.AwaitingAfter(),
		ResolvedAfter:   cfg.Support.ResolvedAfter(),
	}, dispatcher)

	eng := engine.New(engine.Config{
		AdminIDs:             cfg.Admin.IDs,
		NormalTicketCap:      cfg.Support.NormalTicketCap,
		UrgentTicketCap:      cfg.Support.UrgentTicketCap,
		AutoAnswerConfidence: cfg.Support.AutoAnswerConfidence,
	}, engine.Dependencies{
		Sessions:   sessions,
		Tickets:    ticketStore,
		Knowledge:  kb,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redisConn),
		Conversations: handlers.NewConversationsHandler(eng, ticketStore),
		Admin:         handlers.NewAdminHandler(eng),
	})

	_ = dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAssistantStarted,
		Timestamp: time.Now(),
		Payload:   events.AssistantStartedPayload{FAQCount: kb.Size()},
	})
	logger.Info("assistant started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("session_backend", cfg.Session.Backend),
		zap.Int("faq_entries", kb.Size()))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
