package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mateusmacedo/go-seatbooking/internal/config"
	"github.com/mateusmacedo/go-seatbooking/internal/seating"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/application"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/infrastructure"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
	channelsAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/channels/adapter"
	kafkaAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/kafka/adapter"
	redisAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/redis/adapter"
	watermillLogAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	appLogger, err := zapAdapter.NewZapAppLogger(cfg.AppName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), "Erro fatal", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger pkgApp.AppLogger) error {
	var idGenerator pkgDomain.IDGenerator[string] = pkgInfra.GenerateUUID

	store, closeStore, err := openStore(cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	eventBus, closeEvents, err := newEventBus(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeEvents()

	buses := application.Buses{
		BookSeats:               pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.BookSeatsData], application.BookSeatsData](appLogger),
		AddRoute:                pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.AddRouteData], application.AddRouteData](appLogger),
		ListRoutes:              pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.ListRoutesData], application.ListRoutesData, []domain.RouteSummary](appLogger),
		ListSeats:               pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.ListSeatsData], application.ListSeatsData, application.SeatMapView](appLogger),
		FindRoute:               pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FindRouteData], application.FindRouteData, domain.RouteSummary](appLogger),
		FindAllocation:          pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FindAllocationData], application.FindAllocationData, domain.Allocation](appLogger),
		FindBookingsByPassenger: pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.FindBookingsByPassengerData], application.FindBookingsByPassengerData, []domain.Booking](appLogger),
		SeatsBooked:             eventBus,
	}

	seatingSlice, err := seating.NewSeatingSlice(ctx, buses, idGenerator, appLogger, store, seating.Geometry{
		Rows:    cfg.SeatRows,
		Columns: cfg.SeatColumns,
	})
	if err != nil {
		return err
	}

	if cfg.SeedRoutes {
		if err := seatingSlice.Seed(ctx, seating.DefaultRoutes()); err != nil {
			return err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	seatingSlice.RegisterRoutes(router)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "Server starting on:"+cfg.HTTPAddr, map[string]interface{}{
			"store":  cfg.StoreBackend,
			"events": cfg.EventBackend,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	appLogger.Info(context.Background(), "Encerrando servidor...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	appLogger.Info(context.Background(), "Servidor encerrado", nil)
	return nil
}

func openStore(cfg *config.Config, appLogger pkgApp.AppLogger) (seating.Store, func(), error) {
	if cfg.StoreBackend != config.StorePostgres {
		return infrastructure.NewInMemorySeatingStore(appLogger), func() {}, nil
	}

	store, err := infrastructure.OpenGormSeatingStore(cfg.PostgresDSN, appLogger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			pkgApp.LogError(context.Background(), appLogger, "Erro ao fechar banco de dados", err, nil)
		}
	}, nil
}

func newEventBus(ctx context.Context, cfg *config.Config, appLogger pkgApp.AppLogger) (application.SeatsBookedBus, func(), error) {
	if cfg.EventBackend == config.EventsInline {
		return pkgInfra.NewSimpleEventBus[pkgDomain.Event[application.SeatsBooked], application.SeatsBooked](appLogger), func() {}, nil
	}

	logger := watermillLogAdapter.NewWatermillLoggerAdapter(appLogger)

	var (
		publisher  message.Publisher
		subscriber message.Subscriber
	)

	switch cfg.EventBackend {
	case config.EventsRedis:
		client := redisAdapter.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisAdapter.Ping(ctx, client); err != nil {
			return nil, nil, err
		}
		pub, sub, err := redisAdapter.NewRedisStreamPubSub(client, cfg.AppName, cfg.AppName+"-"+watermill.NewShortUUID(), logger)
		if err != nil {
			return nil, nil, err
		}
		publisher, subscriber = pub, sub
	case config.EventsKafka:
		pub, sub, err := kafkaAdapter.NewKafkaPubSub(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, cfg.AppName, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := kafkaAdapter.InitializeTopics(sub, application.SeatsBookedEventName); err != nil {
			return nil, nil, err
		}
		publisher, subscriber = pub, sub
	default:
		pubSub := channelsAdapter.NewGoChannelPubSub(logger)
		publisher, subscriber = pubSub, pubSub
	}

	bus := channelsAdapter.NewWatermillEventBus[pkgDomain.Event[application.SeatsBooked], application.SeatsBooked](publisher, subscriber, appLogger)
	return bus, func() {
		if err := bus.Close(); err != nil {
			pkgApp.LogError(context.Background(), appLogger, "Erro ao encerrar barramento de eventos", err, nil)
		}
		if err := publisher.Close(); err != nil {
			pkgApp.LogError(context.Background(), appLogger, "Erro ao encerrar publicador", err, nil)
		}
	}, nil
}
