package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetride/internal/app/commands"
	bookingapp "fleetride/internal/app/handlers/booking"
	payoutapp "fleetride/internal/app/handlers/payout"
	"fleetride/internal/app/middleware"
	appoutbox "fleetride/internal/app/outbox"
	"fleetride/internal/app/policies"
	"fleetride/internal/app/queries"
	"fleetride/internal/app/schedule"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/infra/broker/kafka"
	"fleetride/internal/infra/config"
	mongodb "fleetride/internal/infra/db/mongo"
	"fleetride/internal/infra/gateway"
	ginserver "fleetride/internal/infra/http/gin"
	"fleetride/internal/infra/obs"
	infraoutbox "fleetride/internal/infra/outbox"
	"fleetride/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("dependency wiring failed", "error", err)
		os.Exit(1)
	}
	defer deps.close(logger)

	app := buildApplication(cfg, deps)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: deps.ready,
	}, app)

	if deps.outboxWorker != nil {
		go func() {
			if err := deps.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	sweeper := &schedule.Sweeper{
		UoWFactory: deps.uowFactory,
		Commands:   deps.commandBus,
		Clock:      clock.System{},
		Interval:   cfg.SweepInterval,
		Logger:     logger,
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("booking sweeper stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "gateway", cfg.GatewayMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type dependencies struct {
	uowFactory   uow.Factory
	outbox       appoutbox.Outbox
	idStore      middleware.IdempotencyStore
	gateway      policies.PayoutGatewayPort
	accounts     policies.BankVerificationPort
	commandBus   commands.Bus
	outboxWorker *infraoutbox.Worker

	mongoClient *mongodb.Client
	producer    *kafka.Producer
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		deps.mongoClient = client

		bookingRepo := mongodb.NewBookingRepository(client.DB)
		payoutRepo := mongodb.NewPayoutRepository(client.DB)
		deps.uowFactory = mongodb.Factory{DB: client.DB, BookingRepo: bookingRepo, PayoutRepo: payoutRepo}
		deps.idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)

		store := infraoutbox.NewStore(client.DB)
		deps.outbox = store

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		deps.producer = producer
		deps.outboxWorker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	default:
		bookingRepo := memory.NewBookingRepository()
		payoutRepo := memory.NewPayoutRepository()
		deps.uowFactory = memory.Factory{BookingRepo: bookingRepo, PayoutRepo: payoutRepo}
		deps.idStore = memory.NewIdempotencyStore()
		deps.outbox = memory.NewOutbox()
	}

	switch cfg.GatewayMode {
	case "http":
		gw := &gateway.HTTPGateway{
			Client:    &http.Client{Timeout: 15 * time.Second},
			BaseURL:   cfg.GatewayURL,
			SecretKey: cfg.GatewaySecret,
			Logger:    logger,
		}
		deps.gateway = gw
		deps.accounts = gw
	default:
		sandbox := gateway.NewSandbox()
		deps.gateway = sandbox
		deps.accounts = sandbox
	}

	return deps, nil
}

func (d *dependencies) ready() error {
	if d.mongoClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return d.mongoClient.Ping(ctx)
}

func (d *dependencies) close(logger *slog.Logger) {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
	if d.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.mongoClient.Close(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
}

func buildApplication(cfg config.Config, deps *dependencies) ginserver.Handlers {
	sysClock := clock.System{}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, bookingapp.ProgressBookingCommand{}.Key(), &bookingapp.ProgressBookingHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, bookingapp.AssignChauffeurCommand{}.Key(), &bookingapp.AssignChauffeurHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, bookingapp.UnassignChauffeurCommand{}.Key(), &bookingapp.UnassignChauffeurHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, payoutapp.InitiatePayoutCommand{}.Key(), &payoutapp.InitiatePayoutHandler{
		UoWFactory: deps.uowFactory, Gateway: deps.gateway, Accounts: deps.accounts,
		Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, payoutapp.SettlePayoutCommand{}.Key(), &payoutapp.SettlePayoutHandler{
		UoWFactory: deps.uowFactory, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})
	commands.RegisterHandler(commandBus, payoutapp.RetryPayoutCommand{}.Key(), &payoutapp.RetryPayoutHandler{
		UoWFactory: deps.uowFactory, Gateway: deps.gateway, Outbox: deps.outbox, Encoder: encoder, Clock: sysClock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: deps.uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(deps.idStore, nil,
			domainbooking.ErrInvalidTransition,
			domainpayout.ErrInvalidTransition,
			bookingapp.ErrCancellationCutoffPassed,
			payoutapp.ErrNotEligible,
			period.ErrInvalidPeriod,
		),
		middleware.Transaction(deps.uowFactory, nil),
		middleware.OutboxFlush(deps.outbox),
	)
	deps.commandBus = commandBusWithMiddleware

	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Currency: cfg.Currency,
		},
		Payout: ginserver.PayoutHandler{
			Commands: commandBusWithMiddleware,
			Currency: cfg.Currency,
		},
	}
}
