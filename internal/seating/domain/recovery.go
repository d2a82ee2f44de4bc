package domain

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Recover reconstrói catálogo, ledger e mapas de assentos a partir do que
// execuções anteriores gravaram. Deve rodar antes da primeira reserva.
func Recover(ctx context.Context, catalog *RouteCatalog, ledger *BookingLedger, routes RouteStore, bookings BookingStore) error {
	records, err := routes.LoadRoutes(ctx)
	if err != nil {
		return &PersistenceError{Op: "load routes", Err: err}
	}
	slices.SortFunc(records, func(a, b RouteRecord) int { return cmp.Compare(a.Position, b.Position) })
	for _, r := range records {
		if err := catalog.restore(r); err != nil {
			return err
		}
	}

	stored, err := bookings.LoadBookings(ctx)
	if err != nil {
		return &PersistenceError{Op: "load bookings", Err: err}
	}
	slices.SortFunc(stored, func(a, b Booking) int { return cmp.Compare(a.ID, b.ID) })
	for _, b := range stored {
		route, err := catalog.Find(b.RouteID)
		if err != nil {
			return fmt.Errorf("booking %d: %w", b.ID, err)
		}
		if err := route.seats.Reserve(b.SeatNumber); err != nil {
			return fmt.Errorf("booking %d: %w", b.ID, err)
		}
		if err := ledger.restore(b); err != nil {
			return err
		}
	}
	return nil
}
