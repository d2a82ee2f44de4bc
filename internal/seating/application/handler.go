package application

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

var ErrAllocationNotFound = errors.New("allocation not found")

type bookSeatsHandler struct {
	catalog  *domain.RouteCatalog
	engine   *domain.AllocationEngine
	eventBus pkgApp.EventBus[pkgDomain.Event[SeatsBooked], SeatsBooked]
	logger   pkgApp.AppLogger
}

func (h *bookSeatsHandler) Handle(ctx context.Context, command pkgDomain.Command[BookSeatsData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "Contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	fields := map[string]interface{}{
		"allocation_id": data.AllocationID,
		"user":          data.User,
		"route_index":   data.RouteIndex,
		"num_tickets":   data.NumTickets,
	}

	route, err := h.catalog.Get(data.RouteIndex)
	if err != nil {
		pkgApp.LogWarn(ctx, h.logger, "Rota inválida", err, fields)
		return err
	}
	fields["route"] = route.Label()

	allocation, err := h.engine.BookMany(ctx, data.AllocationID, data.User, route, data.NumTickets, data.Seats)
	switch {
	case err == nil:
	case domain.IsValidation(err), errors.Is(err, domain.ErrAlreadyBooked):
		pkgApp.LogWarn(ctx, h.logger, "Reserva rejeitada", err, fields)
		return err
	default:
		pkgApp.LogError(ctx, h.logger, "Erro ao reservar assentos", err, fields)
		return err
	}

	seats := make([]int, len(data.Seats))
	for i, s := range data.Seats {
		seats[i] = s.SeatNumber
	}
	fields["booking_ids"] = allocation.BookingIDs
	fields["total_fare"] = allocation.TotalFare.StringFixed(2)
	pkgApp.LogInfo(ctx, h.logger, "Assentos reservados com sucesso", fields)

	event := NewSeatsBookedEvent(SeatsBooked{
		AllocationID: allocation.ID,
		User:         data.User,
		RouteID:      route.ID,
		Route:        allocation.RouteLabel,
		Seats:        seats,
		BookingIDs:   allocation.BookingIDs,
		TotalFare:    allocation.TotalFare.StringFixed(2),
	})
	// a alocação já foi confirmada; falha na publicação não a desfaz
	if err := h.eventBus.Publish(ctx, event); err != nil {
		pkgApp.LogError(ctx, h.logger, "Erro ao publicar evento", err, fields)
	}
	return nil
}

func NewBookSeatsHandler(
	catalog *domain.RouteCatalog,
	engine *domain.AllocationEngine,
	eventBus pkgApp.EventBus[pkgDomain.Event[SeatsBooked], SeatsBooked],
	logger pkgApp.AppLogger,
) pkgApp.CommandHandler[pkgDomain.Command[BookSeatsData], BookSeatsData] {
	return &bookSeatsHandler{
		catalog:  catalog,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
	}
}

type addRouteHandler struct {
	catalog *domain.RouteCatalog
	logger  pkgApp.AppLogger
}

func (h *addRouteHandler) Handle(ctx context.Context, command pkgDomain.Command[AddRouteData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "Contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	fields := map[string]interface{}{
		"source":      data.Source,
		"destination": data.Destination,
		"adult_fare":  data.AdultFare.String(),
	}

	var (
		id  domain.RouteID
		err error
	)
	if data.RouteID == "" {
		id, err = h.catalog.AddRoute(ctx, data.Source, data.Destination, data.AdultFare)
	} else {
		id, err = h.catalog.AddRouteWithID(ctx, data.RouteID, data.Source, data.Destination, data.AdultFare)
	}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidFare), errors.Is(err, domain.ErrDuplicateRoute):
		pkgApp.LogWarn(ctx, h.logger, "Rota rejeitada", err, fields)
		return err
	default:
		pkgApp.LogError(ctx, h.logger, "Erro ao cadastrar rota", err, fields)
		return err
	}

	fields["route_id"] = id
	pkgApp.LogInfo(ctx, h.logger, "Rota cadastrada", fields)
	return nil
}

func NewAddRouteHandler(catalog *domain.RouteCatalog, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[AddRouteData], AddRouteData] {
	return &addRouteHandler{catalog: catalog, logger: logger}
}

type listRoutesHandler struct {
	catalog *domain.RouteCatalog
}

func (h *listRoutesHandler) Handle(ctx context.Context, _ pkgDomain.Query[ListRoutesData]) ([]domain.RouteSummary, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return h.catalog.List(), nil
}

func NewListRoutesHandler(catalog *domain.RouteCatalog) pkgApp.QueryHandler[pkgDomain.Query[ListRoutesData], ListRoutesData, []domain.RouteSummary] {
	return &listRoutesHandler{catalog: catalog}
}

type findRouteHandler struct {
	catalog *domain.RouteCatalog
}

func (h *findRouteHandler) Handle(ctx context.Context, query pkgDomain.Query[FindRouteData]) (domain.RouteSummary, error) {
	if ctx.Err() != nil {
		return domain.RouteSummary{}, ctx.Err()
	}
	return h.catalog.Summary(query.Payload().RouteID)
}

func NewFindRouteHandler(catalog *domain.RouteCatalog) pkgApp.QueryHandler[pkgDomain.Query[FindRouteData], FindRouteData, domain.RouteSummary] {
	return &findRouteHandler{catalog: catalog}
}

type listSeatsHandler struct {
	catalog *domain.RouteCatalog
	logger  pkgApp.AppLogger
}

func (h *listSeatsHandler) Handle(ctx context.Context, query pkgDomain.Query[ListSeatsData]) (SeatMapView, error) {
	if ctx.Err() != nil {
		return SeatMapView{}, ctx.Err()
	}

	data := query.Payload()
	route, err := h.catalog.Get(data.RouteIndex)
	if err != nil {
		pkgApp.LogWarn(ctx, h.logger, "Rota inválida", err, map[string]interface{}{"route_index": data.RouteIndex})
		return SeatMapView{}, err
	}

	seats := route.Seats()
	available := slices.Collect(seats.Available())
	return SeatMapView{
		RouteIndex: data.RouteIndex,
		Route: domain.RouteSummary{
			Index:       data.RouteIndex,
			ID:          route.ID,
			Source:      route.Source,
			Destination: route.Destination,
			AdultFare:   route.AdultFare,
			Available:   len(available),
			Capacity:    seats.Capacity(),
		},
		Rows:      seats.Rows(),
		Columns:   seats.Columns(),
		Available: available,
		Rendered:  seats.Render(),
	}, nil
}

func NewListSeatsHandler(catalog *domain.RouteCatalog, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[ListSeatsData], ListSeatsData, SeatMapView] {
	return &listSeatsHandler{catalog: catalog, logger: logger}
}

type findAllocationHandler struct {
	ledger *domain.BookingLedger
}

// Handle reconstrói a alocação a partir do ledger; o total vem de TotalFareFor.
func (h *findAllocationHandler) Handle(ctx context.Context, query pkgDomain.Query[FindAllocationData]) (domain.Allocation, error) {
	if ctx.Err() != nil {
		return domain.Allocation{}, ctx.Err()
	}

	data := query.Payload()
	bookings := h.ledger.ByAllocation(data.AllocationID)
	if len(bookings) == 0 {
		return domain.Allocation{}, fmt.Errorf("%w: %s", ErrAllocationNotFound, data.AllocationID)
	}

	ids := make([]domain.BookingID, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	return domain.Allocation{
		ID:         data.AllocationID,
		RouteID:    bookings[0].RouteID,
		RouteLabel: bookings[0].RouteLabel,
		BookingIDs: ids,
		Bookings:   bookings,
		Fare:       bookings[0].Fare,
		TotalFare:  h.ledger.TotalFareFor(ids),
	}, nil
}

func NewFindAllocationHandler(ledger *domain.BookingLedger) pkgApp.QueryHandler[pkgDomain.Query[FindAllocationData], FindAllocationData, domain.Allocation] {
	return &findAllocationHandler{ledger: ledger}
}

type findBookingsByPassengerHandler struct {
	ledger *domain.BookingLedger
	logger pkgApp.AppLogger
}

func (h *findBookingsByPassengerHandler) Handle(ctx context.Context, query pkgDomain.Query[FindBookingsByPassengerData]) ([]domain.Booking, error) {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "Contexto cancelado", ctx.Err(), nil)
		return nil, ctx.Err()
	}

	data := query.Payload()
	bookings := h.ledger.ByPassenger(data.PassengerName)
	pkgApp.LogDebug(ctx, h.logger, "Reservas encontradas", map[string]interface{}{
		"passenger_name": data.PassengerName,
		"count":          len(bookings),
	})
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func NewFindBookingsByPassengerHandler(ledger *domain.BookingLedger, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[FindBookingsByPassengerData], FindBookingsByPassengerData, []domain.Booking] {
	return &findBookingsByPassengerHandler{ledger: ledger, logger: logger}
}

type seatsBookedEventHandler struct {
	logger pkgApp.AppLogger
}

func (h *seatsBookedEventHandler) Handle(ctx context.Context, event pkgDomain.Event[SeatsBooked]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "Contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := event.Payload()
	pkgApp.LogInfo(ctx, h.logger, ConfirmationMessage(len(data.Seats), data.Route, data.TotalFare), map[string]interface{}{
		"event":         event.EventName(),
		"allocation_id": data.AllocationID,
		"user":          data.User,
	})
	return nil
}

func NewSeatsBookedEventHandler(logger pkgApp.AppLogger) pkgApp.EventHandler[pkgDomain.Event[SeatsBooked], SeatsBooked] {
	return &seatsBookedEventHandler{logger: logger}
}

// ConfirmationMessage é o texto de confirmação mostrado ao passageiro.
func ConfirmationMessage(tickets int, route, totalFare string) string {
	return fmt.Sprintf("Tickets booked successfully for %d seat(s) on %s route. Total Fare: $%s", tickets, route, totalFare)
}
