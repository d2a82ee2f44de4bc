package application

import (
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const (
	ListRoutesQueryName              = "ListRoutes"
	ListSeatsQueryName               = "ListSeats"
	FindRouteQueryName               = "FindRoute"
	FindAllocationQueryName          = "FindAllocation"
	FindBookingsByPassengerQueryName = "FindBookingsByPassenger"
)

type query[T any] struct {
	name string
	data T
}

func (q query[T]) QueryName() string {
	return q.name
}

func (q query[T]) Payload() T {
	return q.data
}

type ListRoutesData struct{}

func NewListRoutesQuery() pkgDomain.Query[ListRoutesData] {
	return query[ListRoutesData]{name: ListRoutesQueryName}
}

type ListSeatsData struct {
	RouteIndex int
}

// SeatMapView é a projeção somente-leitura de um mapa de assentos.
type SeatMapView struct {
	RouteIndex int                 `json:"routeIndex"`
	Route      domain.RouteSummary `json:"route"`
	Rows       int                 `json:"rows"`
	Columns    int                 `json:"columns"`
	Available  []int               `json:"available"`
	Rendered   string              `json:"rendered"`
}

func NewListSeatsQuery(data ListSeatsData) pkgDomain.Query[ListSeatsData] {
	return query[ListSeatsData]{name: ListSeatsQueryName, data: data}
}

type FindRouteData struct {
	RouteID domain.RouteID
}

func NewFindRouteQuery(data FindRouteData) pkgDomain.Query[FindRouteData] {
	return query[FindRouteData]{name: FindRouteQueryName, data: data}
}

type FindAllocationData struct {
	AllocationID string
}

func NewFindAllocationQuery(data FindAllocationData) pkgDomain.Query[FindAllocationData] {
	return query[FindAllocationData]{name: FindAllocationQueryName, data: data}
}

type FindBookingsByPassengerData struct {
	PassengerName string
}

func NewFindBookingsByPassengerQuery(data FindBookingsByPassengerData) pkgDomain.Query[FindBookingsByPassengerData] {
	return query[FindBookingsByPassengerData]{name: FindBookingsByPassengerQueryName, data: data}
}
