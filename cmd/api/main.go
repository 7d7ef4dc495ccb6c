package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthapp/hearthledger-backend/api/routes"
	"github.com/hearthapp/hearthledger-backend/internal/auth"
	"github.com/hearthapp/hearthledger-backend/internal/events"
	"github.com/hearthapp/hearthledger-backend/internal/expenses"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/internal/members"
	"github.com/hearthapp/hearthledger-backend/internal/quests"
	"github.com/hearthapp/hearthledger-backend/internal/receipts"
	"github.com/hearthapp/hearthledger-backend/internal/users"
	"github.com/hearthapp/hearthledger-backend/pkg/auth/session"
	"github.com/hearthapp/hearthledger-backend/pkg/config"
	"github.com/hearthapp/hearthledger-backend/pkg/db"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
	"github.com/hearthapp/hearthledger-backend/pkg/metrics"
	"github.com/hearthapp/hearthledger-backend/pkg/migrate"
	"github.com/hearthapp/hearthledger-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	membersService, err := members.NewService(members.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create members service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	dispatcher := events.NewDispatcher(logg, metrics.NewEventMetrics(registry))

	expenseRepo := expenses.NewRepository(dbClient.DB())

	householdsService, err := households.NewService(
		households.NewRepository(dbClient.DB()),
		membersService,
		expenseRepo,
		dbClient,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create households service", err)
		os.Exit(1)
	}

	expensesService, err := expenses.NewService(expenseRepo, membersService, dbClient, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create expenses service", err)
		os.Exit(1)
	}

	receiptsService, err := receipts.NewService(receipts.NewRepository(dbClient.DB()), membersService, dbClient, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	questsService, err := quests.NewService(quests.NewRepository(dbClient.DB()), membersService, dbClient, cfg.Quest, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quests service", err)
		os.Exit(1)
	}

	dispatcher.Subscribe(events.KindExpenseLogged, "quests.expense_progress", questsService.HandleExpenseLogged)
	dispatcher.Subscribe(events.KindReceiptScanned, "quests.receipt_progress", questsService.HandleReceiptScanned)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Sessions:   sessionManager,
			Registry:   registry,
			Auth:       authService,
			Households: householdsService,
			Expenses:   expensesService,
			Receipts:   receiptsService,
			Quests:     questsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
