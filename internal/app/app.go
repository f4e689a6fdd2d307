package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	httpx "github.com/lexbridge/lexbridge-backend/internal/http"
	httpH "github.com/lexbridge/lexbridge-backend/internal/http/handlers"
	"github.com/lexbridge/lexbridge-backend/internal/observability"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *httpx.Server

	otelShutdown func(context.Context) error
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

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "lexbridge",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	gdb := clients.Postgres.DB()

	repos := wireRepos(gdb, clients, cfg, log)

	services, err := wireServices(clients, repos, cfg, log)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	server := httpx.NewServer(httpx.RouterConfig{
		Log:              log,
		HealthHandler:    httpH.NewHealthHandler(log, healthChecks(clients)),
		RetrievalHandler: httpH.NewRetrievalHandler(log, services.Retriever, services.Profiles),
		VerifyHandler:    httpH.NewVerifyHandler(log, services.Verifier),
		BridgeHandler:    httpH.NewBridgeHandler(log, gdb, repos.Bridge, clients.Vector),
		FeedbackHandler:  httpH.NewFeedbackHandler(log, services.Retriever),
	})

	return &App{
		Log:          log,
		DB:           gdb,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        repos,
		Services:     services,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

func healthChecks(clients Clients) []httpH.DependencyCheck {
	checks := []httpH.DependencyCheck{
		{Name: "postgres", Check: clients.Postgres.HealthCheck},
		{Name: "neo4j", Check: clients.Neo4j.HealthCheck},
		{Name: "qdrant", Check: clients.Vector.HealthCheck},
	}
	if clients.Redis != nil {
		checks = append(checks, httpH.DependencyCheck{
			Name: "redis", Optional: true, Check: clients.Redis.HealthCheck,
		})
	}
	return checks
}

func (a *App) Run() error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("server listening", "addr", addr, "env", a.Cfg.Environment)
	return a.Server.Run(addr)
}

func (a *App) Shutdown(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Clients.Close()
	a.Log.Sync()
}
