package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfconnector/billing-console/internal/config"
	gateway "github.com/gfconnector/billing-console/internal/gateways"
	"github.com/gfconnector/billing-console/internal/handlers"
	"github.com/gfconnector/billing-console/internal/mockdata"
	"github.com/gfconnector/billing-console/internal/queue"
	"github.com/gfconnector/billing-console/internal/repository"
	"github.com/gfconnector/billing-console/internal/services"
	"github.com/gfconnector/billing-console/internal/store"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/pg"
	"github.com/gfconnector/billing-console/pkg/prom"
	"github.com/gfconnector/billing-console/pkg/redis"
	"github.com/shopspring/decimal"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(config.ArgEnvPath(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
	logger.Info("starting billing api", "version", version, "commit", commit, "date", date)

	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed opening database", "driver", cfg.DBDriver, "error", err)
		return
	}
	defer db.Close()

	healthService := services.NewHealthService()
	healthService.Register("db", db)

	transactions, err := transactionStore(cfg, db)
	if err != nil {
		logger.Error("failed preparing transaction store", "store", cfg.TransactionStore, "error", err)
		return
	}

	// redis is optional: it adds the confirmation lock and the resend queue
	var locker services.Locker
	var publisher services.DeliveryPublisher
	if cfg.RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: "default",
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		healthService.Register("redis", redisAdap)
		locker = services.NewRedisLocker(redisAdap, 30*time.Second)

		q, err := queue.NewQueue(redisAdap, queueConfig(cfg))
		if err != nil {
			logger.Error("failed creating queue", "error", err)
			return
		}
		publisher = q
	}

	var issuer services.InvoiceIssuer = services.NewLocalIssuer()
	if cfg.InvoicerURL != "" {
		gc := gateway.DefaultConfig(cfg.InvoicerURL)
		gc.Timeout = cfg.InvoicerTimeout
		gc.MaxRetries = cfg.InvoicerMaxRetries
		client, err := gateway.NewInvoicerClient(gc)
		if err != nil {
			logger.Error("failed to create invoicer client", "error", err)
			return
		}
		healthService.Register("invoicer", client)
		issuer = client
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if cfg.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	settingsService := services.NewSettingsService(repository.NewBillingSettingsRepository(db))
	transactionService := services.NewTransactionService(transactions, issuer, locker)
	documentService := services.NewDocumentService(transactions, issuer, publisher, settingsService)
	reportService := services.NewReportService(transactions)
	authService := services.NewAuthService(repository.NewUserRepository(db), cfg.JwtSecret, cfg.JwtTTL, repository.ErrDuplicateUsername)

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.CORSMiddleware(cfg.HttpCorsOrigin))
	s.Use(xhttp.BearerAuthMiddleware(authService.Verify, "/api/health", "/api/auth/"))
	s.Router = xhttp.CreateDefaultRouter()

	g := s.Router.Group("/api")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))
	handlers.RegisterAuthRoutes(g, handlers.NewAuthHandler(authService))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(transactionService))
	handlers.RegisterDocumentRoutes(g, handlers.NewDocumentHandler(documentService))
	handlers.RegisterSettingsRoutes(g, handlers.NewSettingsHandler(settingsService))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(reportService))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	logger.Info("shutting down billing api")
	s.Shutdown()
	logger.Sync()
}

func openDB(cfg *config.Config) (*pg.DB, error) {
	if cfg.DBDriver == "sqlite" {
		db, err := pg.CreateSqlite(cfg.SqlitePath, cfg.IsDev() && cfg.AppDebug)
		if err != nil {
			return nil, err
		}
		// sqlite is never migrated by the cli, so the schema comes from the entities
		if err = db.AutoMigrate(repository.Entities()...); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	readConf := pg.Config{
		User:     cfg.PostgresReadUser,
		Host:     cfg.PostgresReadHost,
		Port:     cfg.PostgresReadPort,
		Password: cfg.PostgresReadPassword,
		Database: cfg.PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
	}
	return pg.CreateReadWrite(readConf, writeConf, cfg.IsDev() && cfg.AppDebug)
}

// transactionStore picks where transactions live. The memory store and an empty
// in-memory sqlite database are both filled with the mock data set.
func transactionStore(cfg *config.Config, db *pg.DB) (services.TransactionRepository, error) {
	seed := mockdata.Generate(cfg.MockSeedSize, time.Now())
	if cfg.TransactionStore == config.StoreMemory {
		return store.NewMemoryStore(seed), nil
	}

	repo := repository.NewTransactionRepository(db)
	if cfg.DBDriver == "sqlite" && cfg.SqlitePath == ":memory:" {
		n, err := repo.Seed(context.Background(), seed)
		if err != nil {
			return nil, err
		}
		logger.Info("seeded in-memory database", "transactions", n)
	}
	return repo, nil
}

func queueConfig(cfg *config.Config) queue.QueueConfig {
	return queue.QueueConfig{
		Name:              cfg.QueueName,
		ConsumerGroup:     cfg.QueueConsumerGroup,
		ConsumerName:      cfg.QueueConsumerName,
		MaxRetries:        cfg.QueueMaxRetries,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		PollInterval:      cfg.QueuePollInterval,
		BatchSize:         cfg.QueueBatchSize,
		MaxLen:            cfg.QueueMaxLen,
		EnableDLQ:         cfg.QueueEnableDLQ,
	}
}
