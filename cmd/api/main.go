// Package main is the entry point for the advisory API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/asesoria-ai/advisor-platform/internal/agent"
	"github.com/asesoria-ai/advisor-platform/internal/backup"
	"github.com/asesoria-ai/advisor-platform/internal/config"
	"github.com/asesoria-ai/advisor-platform/internal/events"
	"github.com/asesoria-ai/advisor-platform/internal/handler"
	"github.com/asesoria-ai/advisor-platform/internal/llm"
	"github.com/asesoria-ai/advisor-platform/internal/middleware"
	"github.com/asesoria-ai/advisor-platform/internal/service"
	"github.com/asesoria-ai/advisor-platform/internal/store"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
	"github.com/asesoria-ai/advisor-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting advisory API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "advisor-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Event stream is optional; the advisor runs fine without NATS.
	var eventsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer eventsClient.Close()
			publisher = events.NewPublisher(eventsClient)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure events stream, events disabled", zap.Error(err))
				publisher = nil
			}
		}
	}

	// Select the agent provider.
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderOpenAI) && cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	default:
		log.Error("no agent API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create agent client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("agent provider ready", zap.String("provider", llmClient.Name()))

	gateway := agent.NewLLMGateway(llmClient, agent.Options{
		Model:     cfg.AgentModel,
		System:    cfg.AgentSystemPrompt,
		MaxTokens: cfg.AgentMaxTokens,
		Streaming: cfg.AgentStreaming,
	}, log)

	// Restore the persisted collection and build the session.
	backupAdapter := backup.NewFileAdapter(cfg.BackupPath, log)
	conversationStore := store.New(store.Options{
		DefaultTitle: cfg.DefaultTitle,
		Greeting:     cfg.Greeting,
		TitleLimit:   cfg.TitleMaxChars,
	})
	conversationStore.Seed(backupAdapter.Load())
	log.Info("collection restored", zap.Int("conversations", conversationStore.Len()))

	sessionOpts := []service.Option{service.WithSearchLimit(cfg.SearchLimit)}
	if publisher != nil {
		sessionOpts = append(sessionOpts, service.WithEvents(publisher))
	}
	session := service.NewSession(conversationStore, backupAdapter, gateway, log, sessionOpts...)

	healthHandler := handler.NewHealthHandler(eventsClient)
	conversationHandler := handler.NewConversationHandler(session, log)
	messageHandler := handler.NewMessageHandler(session, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/session", conversationHandler.Session)
		r.Post("/messages", messageHandler.Submit)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)
			r.Get("/search", conversationHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)
				r.Post("/select", conversationHandler.Select)
				r.Get("/messages", messageHandler.List)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if err := session.Flush(); err != nil {
		log.Warn("final backup flush failed", zap.Error(err))
	}

	log.Info("server stopped")
}
