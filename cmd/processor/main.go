package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gfconnector/billing-console/internal/config"
	gateway "github.com/gfconnector/billing-console/internal/gateways"
	"github.com/gfconnector/billing-console/internal/processor"
	"github.com/gfconnector/billing-console/internal/queue"
	"github.com/gfconnector/billing-console/internal/services"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
	"github.com/gfconnector/billing-console/pkg/redis"
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
	logger.Info("starting delivery processor", "version", version, "commit", commit, "date", date)

	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required by the delivery processor")
		return
	}
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

	var sender processor.InvoiceSender = services.NewLocalIssuer()
	if cfg.InvoicerURL != "" {
		gc := gateway.DefaultConfig(cfg.InvoicerURL)
		gc.Timeout = cfg.InvoicerTimeout
		gc.MaxRetries = cfg.InvoicerMaxRetries
		client, err := gateway.NewInvoicerClient(gc)
		if err != nil {
			logger.Error("failed to create invoicer client", "error", err)
			return
		}
		sender = client
	} else {
		logger.Warn("INVOICER_URL is not set, deliveries are only logged")
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	consumerName := cfg.QueueConsumerName
	if consumerName == "" {
		consumerName = hostname
	}

	idempotencyService := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())
	service, err := processor.NewProcessorService(redisAdap,
		processor.NewDeliveryProcessor(sender, idempotencyService),
		processor.Options{
			Queue: queue.QueueConfig{
				Name:              cfg.QueueName,
				ConsumerGroup:     cfg.QueueConsumerGroup,
				ConsumerName:      consumerName,
				MaxRetries:        cfg.QueueMaxRetries,
				VisibilityTimeout: cfg.QueueVisibilityTimeout,
				PollInterval:      cfg.QueuePollInterval,
				BatchSize:         cfg.QueueBatchSize,
				MaxLen:            cfg.QueueMaxLen,
				EnableDLQ:         cfg.QueueEnableDLQ,
			},
			Consumers: cfg.QueueConsumers,
			Workers:   cfg.QueueWorkers,
		})
	if err != nil {
		logger.Error("failed to create the processor", "error", err)
		return
	}

	err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	metricsAddr := cfg.AppDebugMetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9100"
	}
	go prom.ListenAndServer(metricsAddr, cfg.AppDebugMetricsURI)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		service.Stop()
		return
	}

	<-c
	service.Stop()
	stats := service.Metrics().GetStats()
	logger.Info("delivery processor stopped", "processed", stats.Processed, "failed", stats.Failed)
	logger.Sync()
}
