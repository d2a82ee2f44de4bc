package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecover_RebuildsCatalogLedgerAndSeats(t *testing.T) {
	store := &fakeStore{}
	ctx := context.Background()

	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())
	ledger := newLedger(t, store)
	engine := NewAllocationEngine(ledger)
	for _, dst := range []string{"Bangalore", "Delhi"} {
		if _, err := catalog.AddRoute(ctx, "Chennai", dst, decimal.NewFromInt(100)); err != nil {
			t.Fatalf("add route: %v", err)
		}
	}
	route, _ := catalog.Get(2)
	if _, err := engine.BookMany(ctx, "a1", "alice", route, 2, assignments([]int{4, 5})); err != nil {
		t.Fatalf("book: %v", err)
	}

	// nova instância sobre o mesmo store, como após reiniciar o processo
	restarted := NewRouteCatalog(3, 3, store, sequentialIDs())
	restartedLedger := newLedger(t, store)
	if err := Recover(ctx, restarted, restartedLedger, store, store); err != nil {
		t.Fatalf("recover: %v", err)
	}

	if restarted.Len() != 2 {
		t.Fatalf("expected 2 routes, got %d", restarted.Len())
	}
	again, err := restarted.Get(2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.ID != route.ID || again.Seats().Capacity() != 35 {
		t.Fatalf("route restored with wrong identity or geometry: %s %d", again.ID, again.Seats().Capacity())
	}
	for _, seat := range []int{4, 5} {
		if ok, _ := again.Seats().IsAvailable(seat); ok {
			t.Fatalf("seat %d must stay booked after recovery", seat)
		}
	}
	if got := restartedLedger.ByAllocation("a1"); len(got) != 2 {
		t.Fatalf("expected 2 restored bookings, got %d", len(got))
	}

	next, err := NewAllocationEngine(restartedLedger).BookMany(ctx, "a2", "bob", again, 1, assignments([]int{6}))
	if err != nil {
		t.Fatalf("book after recovery: %v", err)
	}
	if next.BookingIDs[0] != 3 {
		t.Fatalf("expected id 3 after recovery, got %d", next.BookingIDs[0])
	}
	if _, err := NewAllocationEngine(restartedLedger).BookMany(ctx, "a3", "bob", again, 1, assignments([]int{4})); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked for a seat sold before restart, got %v", err)
	}
}

func TestRecover_RejectsConflictingBookings(t *testing.T) {
	store := &fakeStore{
		routes: []RouteRecord{{ID: "r1", Position: 1, Source: "A", Destination: "B", Rows: 7, Columns: 5}},
		bookings: []Booking{
			{ID: 1, RouteID: "r1", PassengerName: "Ana", SeatNumber: 3},
			{ID: 2, RouteID: "r1", PassengerName: "Bruno", SeatNumber: 3},
		},
	}
	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())

	err := Recover(context.Background(), catalog, newLedger(t, store), store, store)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
}

func TestRecover_UnknownRoute(t *testing.T) {
	store := &fakeStore{bookings: []Booking{{ID: 1, RouteID: "gone", PassengerName: "Ana", SeatNumber: 1}}}
	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())

	err := Recover(context.Background(), catalog, newLedger(t, store), store, store)
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestRecover_StoreFailure(t *testing.T) {
	store := &fakeStore{}
	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())
	ledger := newLedger(t, store)
	store.fail.Store(true)

	if err := Recover(context.Background(), catalog, ledger, store, store); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
