package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type SeatAssignment struct {
	SeatNumber    int    `json:"seatNumber"`
	PassengerName string `json:"passengerName"`
}

// Allocation é o resultado de um BookMany bem-sucedido.
type Allocation struct {
	ID         string          `json:"allocationId"`
	RouteID    RouteID         `json:"routeId"`
	RouteLabel string          `json:"route"`
	BookingIDs []BookingID     `json:"bookingIds"`
	Bookings   []Booking       `json:"bookings"`
	Fare       decimal.Decimal `json:"fare"`
	TotalFare  decimal.Decimal `json:"totalFare"`
}

// AllocationEngine não guarda estado próprio: opera sobre o SeatMap da rota
// e sobre o ledger durante uma única chamada.
type AllocationEngine struct {
	ledger *BookingLedger
}

func NewAllocationEngine(ledger *BookingLedger) *AllocationEngine {
	return &AllocationEngine{ledger: ledger}
}

// BookMany reserva os assentos pedidos e grava as reservas como uma única
// transação: ou tudo é confirmado ou nenhum estado é alterado.
//
// Ordem: validação sem efeitos, reserva de cada assento na ordem recebida sob o
// mutex da rota, gravação no ledger (persistência primeiro) e confirmação.
// Qualquer falha após a primeira reserva devolve os assentos pendentes.
func (e *AllocationEngine) BookMany(ctx context.Context, allocationID string, user UserRef, route *Route, numTickets int, assignments []SeatAssignment) (Allocation, error) {
	seats := route.Seats()
	if err := validateBatch(seats, numTickets, assignments); err != nil {
		return Allocation{}, err
	}
	if err := ctx.Err(); err != nil {
		return Allocation{}, err
	}

	fare := route.AdultFare
	label := route.Label()

	var ids []BookingID
	err := seats.transact(func(tx *seatTx) error {
		for _, a := range assignments {
			if err := tx.reserve(a.SeatNumber); err != nil {
				return err
			}
		}

		entries := make([]LedgerEntry, len(assignments))
		for i, a := range assignments {
			entries[i] = LedgerEntry{
				AllocationID:  allocationID,
				User:          user,
				RouteID:       route.ID,
				RouteLabel:    label,
				PassengerName: a.PassengerName,
				SeatNumber:    a.SeatNumber,
				Fare:          fare,
			}
		}

		var err error
		ids, err = e.ledger.AppendBatch(ctx, entries)
		return err
	})
	if err != nil {
		return Allocation{}, err
	}

	bookings := make([]Booking, 0, len(ids))
	for _, id := range ids {
		if b, ok := e.ledger.Get(id); ok {
			bookings = append(bookings, b)
		}
	}

	return Allocation{
		ID:         allocationID,
		RouteID:    route.ID,
		RouteLabel: label,
		BookingIDs: ids,
		Bookings:   bookings,
		Fare:       fare,
		TotalFare:  fare.Mul(decimal.NewFromInt(int64(numTickets))),
	}, nil
}

// validateBatch é a passagem a seco: nenhuma reserva acontece se ela falhar.
func validateBatch(seats *SeatMap, numTickets int, assignments []SeatAssignment) error {
	if numTickets < 1 || numTickets > seats.Capacity() {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidTicketCount, numTickets, seats.Capacity())
	}
	if len(assignments) != numTickets {
		return fmt.Errorf("%w: %d tickets requested but %d seats assigned", ErrInvalidTicketCount, numTickets, len(assignments))
	}

	seen := make(map[int]struct{}, len(assignments))
	for i, a := range assignments {
		if err := seats.checkRange(a.SeatNumber); err != nil {
			return err
		}
		if strings.TrimSpace(a.PassengerName) == "" {
			return fmt.Errorf("%w: ticket %d", ErrEmptyName, i+1)
		}
		if _, dup := seen[a.SeatNumber]; dup {
			return fmt.Errorf("%w: seat %d", ErrDuplicateSeat, a.SeatNumber)
		}
		seen[a.SeatNumber] = struct{}{}
	}
	return nil
}
