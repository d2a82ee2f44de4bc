package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

type fixture struct {
	store   *fakeStore
	catalog *RouteCatalog
	ledger  *BookingLedger
	engine  *AllocationEngine
	route   *Route
}

func newFixture(t *testing.T, fare int64) *fixture {
	t.Helper()
	store := &fakeStore{}
	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())
	if _, err := catalog.AddRoute(context.Background(), "Chennai", "Bangalore", decimal.NewFromInt(fare)); err != nil {
		t.Fatalf("add route: %v", err)
	}
	route, err := catalog.Get(1)
	if err != nil {
		t.Fatalf("get route: %v", err)
	}
	ledger := newLedger(t, store)
	return &fixture{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		engine:  NewAllocationEngine(ledger),
		route:   route,
	}
}

func assignments(seats []int, names ...string) []SeatAssignment {
	out := make([]SeatAssignment, len(seats))
	for i, s := range seats {
		name := fmt.Sprintf("P%d", s)
		if i < len(names) {
			name = names[i]
		}
		out[i] = SeatAssignment{SeatNumber: s, PassengerName: name}
	}
	return out
}

func (f *fixture) mustBeAvailable(t *testing.T, seats ...int) {
	t.Helper()
	for _, s := range seats {
		ok, err := f.route.Seats().IsAvailable(s)
		if err != nil {
			t.Fatalf("is available %d: %v", s, err)
		}
		if !ok {
			t.Fatalf("seat %d should be available", s)
		}
	}
}

func (f *fixture) mustBeBooked(t *testing.T, seats ...int) {
	t.Helper()
	for _, s := range seats {
		ok, err := f.route.Seats().IsAvailable(s)
		if err != nil {
			t.Fatalf("is available %d: %v", s, err)
		}
		if ok {
			t.Fatalf("seat %d should be booked", s)
		}
	}
}

func TestBookMany_EndToEnd(t *testing.T) {
	f := newFixture(t, 100)

	alloc, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, 2, assignments([]int{1, 2}, "A", "B"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if len(alloc.BookingIDs) != 2 {
		t.Fatalf("expected 2 booking ids, got %v", alloc.BookingIDs)
	}
	if !alloc.TotalFare.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total 200, got %s", alloc.TotalFare)
	}
	f.mustBeBooked(t, 1, 2)
	f.mustBeAvailable(t, 3)

	if alloc.Bookings[0].PassengerName != "A" || alloc.Bookings[1].SeatNumber != 2 {
		t.Fatalf("unexpected bookings %+v", alloc.Bookings)
	}
	if alloc.Bookings[0].RouteLabel != "Chennai to Bangalore" || alloc.Bookings[0].User != "alice" {
		t.Fatalf("unexpected booking metadata %+v", alloc.Bookings[0])
	}
	if f.store.savedBookings() != 2 {
		t.Fatalf("expected 2 persisted bookings, got %d", f.store.savedBookings())
	}
}

func TestBookMany_FarePerBooking(t *testing.T) {
	f := newFixture(t, 100)

	alloc, err := f.engine.BookMany(context.Background(), "alloc-1", "bob", f.route, 3, assignments([]int{4, 5, 6}))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if !alloc.TotalFare.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected total 300, got %s", alloc.TotalFare)
	}
	for _, b := range alloc.Bookings {
		if !b.Fare.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("booking %d: expected fare 100, got %s", b.ID, b.Fare)
		}
	}
	if got := f.ledger.TotalFareFor(alloc.BookingIDs); !got.Equal(alloc.TotalFare) {
		t.Fatalf("ledger total %s differs from allocation total %s", got, alloc.TotalFare)
	}
}

func TestBookMany_RollsBackWhenOneSeatIsTaken(t *testing.T) {
	f := newFixture(t, 100)
	if err := f.route.Seats().Reserve(9); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	_, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, 4, assignments([]int{7, 8, 9, 10}))
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
	f.mustBeAvailable(t, 7, 8, 10)
	if f.ledger.Len() != 0 || f.store.savedBookings() != 0 {
		t.Fatalf("no booking may be recorded after rollback")
	}
}

func TestBookMany_DuplicateSeat(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, 2, assignments([]int{3, 3}))
	if !errors.Is(err, ErrDuplicateSeat) {
		t.Fatalf("expected ErrDuplicateSeat, got %v", err)
	}
	f.mustBeAvailable(t, 3)
	if f.ledger.Len() != 0 {
		t.Fatalf("nothing may be booked")
	}
}

func TestBookMany_ValidationHasNoSideEffects(t *testing.T) {
	cases := []struct {
		name       string
		numTickets int
		batch      []SeatAssignment
		want       error
	}{
		{"zero tickets", 0, nil, ErrInvalidTicketCount},
		{"above capacity", 36, assignments([]int{1}), ErrInvalidTicketCount},
		{"count mismatch", 3, assignments([]int{1, 2}), ErrInvalidTicketCount},
		{"seat out of range", 2, assignments([]int{1, 36}), ErrOutOfRange},
		{"seat zero", 1, assignments([]int{0}), ErrOutOfRange},
		{"empty name", 2, assignments([]int{1, 2}, "A", " "), ErrEmptyName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 100)
			_, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, tc.numTickets, tc.batch)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := f.route.Seats().AvailableCount(); got != 35 {
				t.Fatalf("expected all 35 seats available, got %d", got)
			}
		})
	}
}

func TestBookMany_PersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t, 100)
	f.store.fail.Store(true)

	_, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, 2, assignments([]int{1, 2}))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	f.mustBeAvailable(t, 1, 2)
	if f.ledger.Len() != 0 {
		t.Fatalf("ledger and seat map must agree after persistence failure")
	}

	f.store.fail.Store(false)
	if _, err := f.engine.BookMany(context.Background(), "alloc-2", "alice", f.route, 2, assignments([]int{1, 2})); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

func TestBookMany_CanceledContext(t *testing.T) {
	f := newFixture(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.engine.BookMany(ctx, "alloc-1", "alice", f.route, 1, assignments([]int{1})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	f.mustBeAvailable(t, 1)
}

func TestBookMany_FareCapturedAtCallTime(t *testing.T) {
	f := newFixture(t, 100)

	alloc, err := f.engine.BookMany(context.Background(), "alloc-1", "alice", f.route, 1, assignments([]int{1}))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	f.route.AdultFare = decimal.NewFromInt(250)

	stored, ok := f.ledger.Get(alloc.BookingIDs[0])
	if !ok || !stored.Fare.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("recorded fare must not follow later fare changes, got %+v", stored)
	}
}

// Lotes concorrentes que se sobrepõem em um assento: no máximo um vence e
// o perdedor não deixa nenhum assento preso.
func TestBookMany_ConcurrentOverlappingBatches(t *testing.T) {
	const callers = 20
	f := newFixture(t, 50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// todos disputam o assento 35, cada um com um assento exclusivo
			_, err := f.engine.BookMany(context.Background(), fmt.Sprintf("alloc-%d", i), "u", f.route, 2, assignments([]int{i + 1, 35}))
			switch {
			case err == nil:
				mu.Lock()
				winners = append(winners, i)
				mu.Unlock()
			case errors.Is(err, ErrAlreadyBooked):
			default:
				t.Errorf("caller %d: unexpected error %v", i, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %v", winners)
	}
	f.mustBeBooked(t, winners[0]+1, 35)
	for i := 0; i < callers; i++ {
		if i != winners[0] {
			f.mustBeAvailable(t, i+1)
		}
	}
	if f.ledger.Len() != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", f.ledger.Len())
	}
}

func TestBookMany_IndependentRoutesDoNotInterfere(t *testing.T) {
	store := &fakeStore{}
	catalog := NewRouteCatalog(DefaultRows, DefaultColumns, store, sequentialIDs())
	ledger := newLedger(t, store)
	engine := NewAllocationEngine(ledger)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := catalog.AddRoute(ctx, name, "Z", decimal.NewFromInt(10)); err != nil {
			t.Fatalf("add route: %v", err)
		}
	}

	var wg sync.WaitGroup
	for idx := 1; idx <= catalog.Len(); idx++ {
		route, err := catalog.Get(idx)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		for seat := 1; seat <= route.Seats().Capacity(); seat++ {
			wg.Add(1)
			go func(route *Route, seat int) {
				defer wg.Done()
				if _, err := engine.BookMany(ctx, fmt.Sprintf("%s-%d", route.ID, seat), "u", route, 1, assignments([]int{seat})); err != nil {
					t.Errorf("route %s seat %d: %v", route.ID, seat, err)
				}
			}(route, seat)
		}
	}
	wg.Wait()

	if ledger.Len() != 3*35 {
		t.Fatalf("expected %d bookings, got %d", 3*35, ledger.Len())
	}
	for _, s := range catalog.List() {
		if s.Available != 0 {
			t.Fatalf("route %d still has %d seats", s.Index, s.Available)
		}
	}
}
