package application

import (
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

type (
	BookSeatsBus               = pkgApp.CommandBus[pkgDomain.Command[BookSeatsData], BookSeatsData]
	AddRouteBus                = pkgApp.CommandBus[pkgDomain.Command[AddRouteData], AddRouteData]
	ListRoutesBus              = pkgApp.QueryBus[pkgDomain.Query[ListRoutesData], ListRoutesData, []domain.RouteSummary]
	ListSeatsBus               = pkgApp.QueryBus[pkgDomain.Query[ListSeatsData], ListSeatsData, SeatMapView]
	FindRouteBus               = pkgApp.QueryBus[pkgDomain.Query[FindRouteData], FindRouteData, domain.RouteSummary]
	FindAllocationBus          = pkgApp.QueryBus[pkgDomain.Query[FindAllocationData], FindAllocationData, domain.Allocation]
	FindBookingsByPassengerBus = pkgApp.QueryBus[pkgDomain.Query[FindBookingsByPassengerData], FindBookingsByPassengerData, []domain.Booking]
	SeatsBookedBus             = pkgApp.EventBus[pkgDomain.Event[SeatsBooked], SeatsBooked]
)

// Buses agrupa os barramentos usados pela fatia de reservas.
type Buses struct {
	BookSeats               BookSeatsBus
	AddRoute                AddRouteBus
	ListRoutes              ListRoutesBus
	ListSeats               ListSeatsBus
	FindRoute               FindRouteBus
	FindAllocation          FindAllocationBus
	FindBookingsByPassenger FindBookingsByPassengerBus
	SeatsBooked             SeatsBookedBus
}
