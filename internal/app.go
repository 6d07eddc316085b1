package internal

import (
	"chat-relay/auth"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/ws"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is the assembled relay: storage, services, runtime and the HTTP surface.
type App struct {
	Handler      http.Handler
	Orchestrator *runtime.Orchestrator
	Sockets      *ws.Handler
	Metrics      *observability.Metrics
}

func NewApp(log *slog.Logger, config Config, db *badger.DB) (*App, error) {
	charReplacement, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	overflow := ws.OverflowPolicy(config.OverflowPolicy)
	if overflow != ws.DropOldest && overflow != ws.Disconnect {
		return nil, fmt.Errorf("OVERFLOW_POLICY must be %q or %q, got %q", ws.DropOldest, ws.Disconnect, overflow)
	}

	censored, err := moderation.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, charReplacement, log)
	if err != nil {
		return nil, fmt.Errorf("moderator init failed: %w", err)
	}
	log.Info("Moderation loaded", "words", len(censored.Words), "languages", censored.Languages)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(promRegistry)

	gate := auth.NewGate(config.JWTSecret, config.AuthTokenDuration)
	users := storage.NewUserRepository(db)
	messages := storage.NewMessageRepository(db, log)
	rooms := storage.NewRoomRepository(db, messages, log)
	store := services.NewMessageStore(log, messages, users, moderator, metrics, config.MaxContentLength, config.PersistTimeout)

	orchestrator := runtime.NewOrchestrator(log, runtime.Config{
		BufferSize:           config.BufferSize,
		SinkTimeout:          config.SinkTimeout,
		RestartInterval:      config.RestartInterval,
		MetricInterval:       config.MetricInterval,
		LowCapacityThreshold: config.LowCapacityThreshold,
	}, rooms, users, store, metrics)

	authService := services.NewAuthService(users, gate)
	chatService := services.NewChatService(log, users, rooms, messages, orchestrator.Membership(), config.LimitMessages)

	sockets := ws.NewHandler(log, gate, orchestrator, ws.NewOriginPolicy(log, config.Origins()), metrics, ws.Options{
		QueueSize:      config.ConnectionBufferSize,
		Overflow:       overflow,
		MaxMessageSize: config.MaxMessageSize,
		RateLimit:      config.RateLimitRPS,
		RateBurst:      config.RateLimitBurst,
	})

	return &App{
		Handler:      httpapi.NewRouter(log, authService, chatService, gate, sockets, metrics.Handler()),
		Orchestrator: orchestrator,
		Sockets:      sockets,
		Metrics:      metrics,
	}, nil
}

// Run blocks with the supervised workers until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	a.Orchestrator.Start(ctx)
}

// Close drops every live socket then stops the workers.
func (a *App) Close() {
	a.Sockets.CloseAll()
	a.Orchestrator.Stop()
}
