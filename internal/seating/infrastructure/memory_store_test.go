package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

func TestInMemorySeatingStore_SaveRoute(t *testing.T) {
	store := NewInMemorySeatingStore(zapAdapter.NewNopAppLogger())
	route := domain.RouteRecord{ID: "r1", Position: 1, Source: "Pune", Destination: "Goa", AdultFare: decimal.NewFromInt(80), Rows: 7, Columns: 5}

	if err := store.SaveRoute(context.Background(), route); err != nil {
		t.Fatalf("save route: %v", err)
	}
	if err := store.SaveRoute(context.Background(), route); !errors.Is(err, ErrRouteExists) {
		t.Fatalf("expected ErrRouteExists, got %v", err)
	}
	if got := store.Routes()["r1"]; got.Source != "Pune" {
		t.Fatalf("unexpected stored route %+v", got)
	}
}

func TestInMemorySeatingStore_SaveBookingsIsAllOrNothing(t *testing.T) {
	store := NewInMemorySeatingStore(zapAdapter.NewNopAppLogger())
	ctx := context.Background()

	if err := store.SaveBookings(ctx, []domain.Booking{{ID: 1, PassengerName: "Ana"}}); err != nil {
		t.Fatalf("save bookings: %v", err)
	}

	err := store.SaveBookings(ctx, []domain.Booking{{ID: 2, PassengerName: "Bruno"}, {ID: 1, PassengerName: "Caio"}})
	if !errors.Is(err, ErrBookingExists) {
		t.Fatalf("expected ErrBookingExists, got %v", err)
	}

	bookings := store.Bookings()
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking after rejected batch, got %d", len(bookings))
	}
	if bookings[1].PassengerName != "Ana" {
		t.Fatalf("booking 1 was overwritten: %+v", bookings[1])
	}
}

func TestInMemorySeatingStore_SnapshotsAreCopies(t *testing.T) {
	store := NewInMemorySeatingStore(zapAdapter.NewNopAppLogger())
	if err := store.SaveBookings(context.Background(), []domain.Booking{{ID: 1, PassengerName: "Ana"}}); err != nil {
		t.Fatalf("save bookings: %v", err)
	}

	snapshot := store.Bookings()
	delete(snapshot, 1)

	if len(store.Bookings()) != 1 {
		t.Fatal("mutating the snapshot changed the store")
	}
}

func TestInMemorySeatingStore_LoadAfterSave(t *testing.T) {
	store := NewInMemorySeatingStore(zapAdapter.NewNopAppLogger())
	ctx := context.Background()

	if last, err := store.LastBookingID(ctx); err != nil || last != 0 {
		t.Fatalf("expected 0 for empty store, got %d (%v)", last, err)
	}

	for _, r := range []domain.RouteRecord{
		{ID: "r2", Position: 2, Source: "Pune", Destination: "Goa"},
		{ID: "r1", Position: 1, Source: "Chennai", Destination: "Bangalore"},
	} {
		if err := store.SaveRoute(ctx, r); err != nil {
			t.Fatalf("save route: %v", err)
		}
	}
	if err := store.SaveBookings(ctx, []domain.Booking{{ID: 9, PassengerName: "Ana"}, {ID: 4, PassengerName: "Bruno"}}); err != nil {
		t.Fatalf("save bookings: %v", err)
	}

	routes, err := store.LoadRoutes(ctx)
	if err != nil {
		t.Fatalf("load routes: %v", err)
	}
	if len(routes) != 2 || routes[0].ID != "r1" || routes[1].ID != "r2" {
		t.Fatalf("expected routes in position order, got %+v", routes)
	}

	bookings, err := store.LoadBookings(ctx)
	if err != nil {
		t.Fatalf("load bookings: %v", err)
	}
	if len(bookings) != 2 || bookings[0].ID != 4 || bookings[1].ID != 9 {
		t.Fatalf("expected bookings in id order, got %+v", bookings)
	}

	if last, _ := store.LastBookingID(ctx); last != 9 {
		t.Fatalf("expected last id 9, got %d", last)
	}
}
