package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

var errStoreDown = errors.New("store down")

// fakeStore satisfaz RouteStore e BookingStore; fail força erro de persistência.
type fakeStore struct {
	mu       sync.Mutex
	routes   []RouteRecord
	bookings []Booking
	fail     atomic.Bool
}

func (s *fakeStore) SaveRoute(_ context.Context, route RouteRecord) error {
	if s.fail.Load() {
		return errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route)
	return nil
}

func (s *fakeStore) SaveBookings(_ context.Context, bookings []Booking) error {
	if s.fail.Load() {
		return errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, bookings...)
	return nil
}

func (s *fakeStore) LoadRoutes(context.Context) ([]RouteRecord, error) {
	if s.fail.Load() {
		return nil, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RouteRecord(nil), s.routes...), nil
}

func (s *fakeStore) LastBookingID(context.Context) (BookingID, error) {
	if s.fail.Load() {
		return 0, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var last BookingID
	for _, b := range s.bookings {
		last = max(last, b.ID)
	}
	return last, nil
}

func (s *fakeStore) LoadBookings(context.Context) ([]Booking, error) {
	if s.fail.Load() {
		return nil, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Booking(nil), s.bookings...), nil
}

func newLedger(t *testing.T, store BookingStore) *BookingLedger {
	t.Helper()
	ledger, err := NewBookingLedger(context.Background(), store)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func (s *fakeStore) savedBookings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("route-%d", n.Add(1))
	}
}
