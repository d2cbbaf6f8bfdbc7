// Package main provides the entry point for the transaction admission
// processor, wiring the dedup cache, pre-worker filter, worker broker,
// completion queue and post-worker pipeline behind a Kafka ingest loop
// and an HTTP ticket API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stathera/txadmission/internal/api"
	"github.com/stathera/txadmission/internal/chaindb"
	"github.com/stathera/txadmission/internal/feepolicy"
	"github.com/stathera/txadmission/internal/handlers"
	"github.com/stathera/txadmission/internal/ingest"
	"github.com/stathera/txadmission/internal/mempool"
	"github.com/stathera/txadmission/internal/mempoolstore"
	"github.com/stathera/txadmission/internal/peerbus"
	"github.com/stathera/txadmission/internal/storage"
	"github.com/stathera/txadmission/internal/transaction"
	"github.com/stathera/txadmission/internal/wallet"
	"github.com/stathera/txadmission/pkg/config"
	"github.com/stathera/txadmission/pkg/logging"
	"github.com/stathera/txadmission/pkg/metrics"
	"github.com/stathera/txadmission/pkg/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:       logging.InfoLevel,
		Output:      os.Stdout,
		ServiceName: "mempool",
		Environment: "production",
	})

	m := metrics.New(metrics.Config{
		Namespace:   "stathera",
		Subsystem:   "mempool",
		ServiceName: "mempool",
	})

	ledger, err := storage.NewRedisLedger(cfg.Redis.Address)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	pool := mempoolstore.NewRedisPool(ledger.Client, cfg.Mempool.PoolCapacityPerSender)
	chain := chaindb.NewRedisChainDatabase(ledger.Client)
	walletMgr := wallet.NewManager(ledger)
	verifier := wallet.SignatureVerifier{}
	fees := feepolicy.NewStaticMatcher(cfg.Mempool.MinPoolFee, cfg.Mempool.MinBroadcastFee)
	peers := peerbus.NewMonitor()
	registry := handlers.NewRegistry()
	decoder := transaction.EnvelopeDecoder{}
	tickets := mempool.NewTicketStore()

	deps := mempool.Deps{
		Decoder: decoder,
		Wallets: walletMgr,
		Chain:   chain,
		Pool:    pool,
		Fees:    fees,
		Peers:   peers,
		Tickets: tickets,
		Logger:  logger,
		Metrics: m,
	}

	queue := mempool.NewCompletionQueue(func(ctx context.Context, job *mempool.PendingJobResult) {
		mempool.RunPipeline(ctx, job, deps)
	}, logger, cfg.Mempool.QueueYield)

	broker := mempool.NewCryptoWorkerPool(cfg.Mempool.WorkerPoolSize, cfg.Mempool.MaxPerSenderPerBatch, verifier, queue.Submit)

	processor := mempool.New(tickets, pool, registry, walletMgr, broker, queue, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registrySvc := service.NewRegistry(log.New(os.Stdout, "[mempool] ", log.LstdFlags))
	if err := registrySvc.Register(mempool.NewService(processor)); err != nil {
		logger.Error("failed to register mempool processor service", "error", err)
		os.Exit(1)
	}
	if err := registrySvc.StartAll(ctx); err != nil {
		logger.Error("failed to start services", "error", err)
		os.Exit(1)
	}

	consumer, err := ingest.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.TransactionTopic, processor, logger)
	if err != nil {
		logger.Error("failed to start kafka consumer", "error", err)
		os.Exit(1)
	}
	go consumer.Run(ctx)

	httpServer := api.NewMempoolServer(cfg, processor, logger, m)
	go httpServer.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("shutting down")
	cancel()
	httpServer.Shutdown(context.Background())
	if err := registrySvc.StopAll(context.Background()); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
