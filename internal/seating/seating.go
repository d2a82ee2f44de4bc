package seating

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/application"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/seating/infrastructure"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

// Store é a persistência durável usada pelo catálogo e pelo ledger.
type Store interface {
	domain.RouteStore
	domain.BookingStore
}

type Geometry struct {
	Rows    int
	Columns int
}

type SeatingSlice struct {
	Catalog     *domain.RouteCatalog
	Ledger      *domain.BookingLedger
	Engine      *domain.AllocationEngine
	buses       application.Buses
	logger      pkgApp.AppLogger
	httpHandler *infrastructure.SeatingHTTPHandler
}

// NewSeatingSlice recupera do store as rotas e reservas de execuções anteriores
// antes de registrar os handlers.
func NewSeatingSlice(
	ctx context.Context,
	buses application.Buses,
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
	store Store,
	geometry Geometry,
) (*SeatingSlice, error) {
	catalog := domain.NewRouteCatalog(geometry.Rows, geometry.Columns, store, idGenerator)
	ledger, err := domain.NewBookingLedger(ctx, store)
	if err != nil {
		return nil, err
	}
	if err := domain.Recover(ctx, catalog, ledger, store, store); err != nil {
		pkgApp.LogError(ctx, logger, "failed to recover seating state", err, nil)
		return nil, err
	}
	pkgApp.LogInfo(ctx, logger, "seating state recovered", map[string]interface{}{
		"routes":   catalog.Len(),
		"bookings": ledger.Len(),
	})
	engine := domain.NewAllocationEngine(ledger)

	buses.BookSeats.RegisterHandler(application.BookSeatsCommandName, application.NewBookSeatsHandler(catalog, engine, buses.SeatsBooked, logger))
	buses.AddRoute.RegisterHandler(application.AddRouteCommandName, application.NewAddRouteHandler(catalog, logger))
	buses.ListRoutes.RegisterHandler(application.ListRoutesQueryName, application.NewListRoutesHandler(catalog))
	buses.FindRoute.RegisterHandler(application.FindRouteQueryName, application.NewFindRouteHandler(catalog))
	buses.ListSeats.RegisterHandler(application.ListSeatsQueryName, application.NewListSeatsHandler(catalog, logger))
	buses.FindAllocation.RegisterHandler(application.FindAllocationQueryName, application.NewFindAllocationHandler(ledger))
	buses.FindBookingsByPassenger.RegisterHandler(application.FindBookingsByPassengerQueryName, application.NewFindBookingsByPassengerHandler(ledger, logger))
	buses.SeatsBooked.RegisterHandler(application.SeatsBookedEventName, application.NewSeatsBookedEventHandler(logger))

	return &SeatingSlice{
		Catalog:     catalog,
		Ledger:      ledger,
		Engine:      engine,
		buses:       buses,
		logger:      logger,
		httpHandler: infrastructure.NewSeatingHTTPHandler(buses, idGenerator, logger),
	}, nil
}

// RouteSeed descreve uma rota cadastrada na inicialização.
type RouteSeed struct {
	Source      string
	Destination string
	AdultFare   decimal.Decimal
}

// DefaultRoutes são as rotas com que o sistema sempre foi inicializado.
func DefaultRoutes() []RouteSeed {
	return []RouteSeed{
		{"Chennai", "Bangalore", decimal.NewFromInt(100)},
		{"Mumbai", "Delhi", decimal.NewFromInt(150)},
		{"Kolkata", "Hyderabad", decimal.NewFromInt(120)},
		{"Jaipur", "Ahmedabad", decimal.NewFromInt(90)},
		{"Pune", "Goa", decimal.NewFromInt(80)},
		{"Lucknow", "Varanasi", decimal.NewFromInt(70)},
	}
}

// Seed cadastra as rotas pelo barramento de comandos, na ordem recebida.
// Um catálogo já recuperado do store não é semeado de novo.
func (s *SeatingSlice) Seed(ctx context.Context, routes []RouteSeed) error {
	if n := s.Catalog.Len(); n > 0 {
		pkgApp.LogInfo(ctx, s.logger, "catalog already populated, skipping seed", map[string]interface{}{"routes": n})
		return nil
	}
	for _, r := range routes {
		command := application.NewAddRouteCommand(application.AddRouteData{
			Source:      r.Source,
			Destination: r.Destination,
			AdultFare:   r.AdultFare,
		})
		if err := s.buses.AddRoute.Dispatch(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

func (s *SeatingSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
