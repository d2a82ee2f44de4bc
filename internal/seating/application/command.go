package application

import (
	"github.com/shopspring/decimal"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const (
	BookSeatsCommandName = "BookSeats"
	AddRouteCommandName  = "AddRoute"
)

// BookSeatsData contém os dados necessários para reservar assentos em uma rota.
// AllocationID é gerado pelo chamador para que o resultado possa ser consultado depois.
type BookSeatsData struct {
	AllocationID string                  `json:"allocationId"`
	User         domain.UserRef          `json:"user"`
	RouteIndex   int                     `json:"routeIndex"`
	NumTickets   int                     `json:"numTickets"`
	Seats        []domain.SeatAssignment `json:"seats"`
}

type bookSeatsCommand struct {
	data BookSeatsData
}

func (c bookSeatsCommand) CommandName() string {
	return BookSeatsCommandName
}

func (c bookSeatsCommand) Payload() BookSeatsData {
	return c.data
}

func NewBookSeatsCommand(data BookSeatsData) pkgDomain.Command[BookSeatsData] {
	return bookSeatsCommand{data: data}
}

// AddRouteData descreve uma rota nova; com RouteID vazio o catálogo gera o identificador.
type AddRouteData struct {
	RouteID     domain.RouteID  `json:"routeId"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	AdultFare   decimal.Decimal `json:"adultFare"`
}

type addRouteCommand struct {
	data AddRouteData
}

func (c addRouteCommand) CommandName() string {
	return AddRouteCommandName
}

func (c addRouteCommand) Payload() AddRouteData {
	return c.data
}

func NewAddRouteCommand(data AddRouteData) pkgDomain.Command[AddRouteData] {
	return addRouteCommand{data: data}
}
