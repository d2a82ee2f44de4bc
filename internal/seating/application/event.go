package application

import (
	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

const SeatsBookedEventName = "SeatsBooked"

// SeatsBooked é publicado depois que uma alocação foi confirmada e persistida.
type SeatsBooked struct {
	AllocationID string             `json:"allocationId"`
	User         domain.UserRef     `json:"user"`
	RouteID      domain.RouteID     `json:"routeId"`
	Route        string             `json:"route"`
	Seats        []int              `json:"seats"`
	BookingIDs   []domain.BookingID `json:"bookingIds"`
	TotalFare    string             `json:"totalFare"`
}

type seatsBookedEvent struct {
	data SeatsBooked
}

func (e seatsBookedEvent) EventName() string {
	return SeatsBookedEventName
}

func (e seatsBookedEvent) Payload() SeatsBooked {
	return e.data
}

func NewSeatsBookedEvent(data SeatsBooked) pkgDomain.Event[SeatsBooked] {
	return seatsBookedEvent{data: data}
}
