package infrastructure

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/mateusmacedo/go-seatbooking/internal/seating/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
)

var (
	ErrRouteExists   = errors.New("route already exists")
	ErrBookingExists = errors.New("booking already exists")
)

// InMemorySeatingStore é a persistência padrão quando nenhum banco está configurado.
type InMemorySeatingStore struct {
	mu       sync.RWMutex
	routes   map[domain.RouteID]domain.RouteRecord
	bookings map[domain.BookingID]domain.Booking
	logger   pkgApp.AppLogger
}

func NewInMemorySeatingStore(logger pkgApp.AppLogger) *InMemorySeatingStore {
	return &InMemorySeatingStore{
		routes:   make(map[domain.RouteID]domain.RouteRecord),
		bookings: make(map[domain.BookingID]domain.Booking),
		logger:   logger,
	}
}

func (s *InMemorySeatingStore) SaveRoute(ctx context.Context, route domain.RouteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.routes[route.ID]; exists {
		pkgApp.LogError(ctx, s.logger, "route already exists", ErrRouteExists, map[string]interface{}{
			"route_id": route.ID,
		})
		return ErrRouteExists
	}

	s.routes[route.ID] = route
	pkgApp.LogDebug(ctx, s.logger, "route saved", map[string]interface{}{
		"route_id": route.ID,
		"position": route.Position,
	})
	return nil
}

// SaveBookings verifica o lote inteiro antes de gravar qualquer item.
func (s *InMemorySeatingStore) SaveBookings(ctx context.Context, bookings []domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bookings {
		if _, exists := s.bookings[b.ID]; exists {
			pkgApp.LogError(ctx, s.logger, "booking already exists", ErrBookingExists, map[string]interface{}{
				"booking_id": b.ID,
			})
			return ErrBookingExists
		}
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}

	pkgApp.LogDebug(ctx, s.logger, "bookings saved", map[string]interface{}{
		"count": len(bookings),
	})
	return nil
}

func (s *InMemorySeatingStore) Routes() map[domain.RouteID]domain.RouteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.RouteID]domain.RouteRecord, len(s.routes))
	for k, v := range s.routes {
		out[k] = v
	}
	return out
}

func (s *InMemorySeatingStore) Bookings() map[domain.BookingID]domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.BookingID]domain.Booking, len(s.bookings))
	for k, v := range s.bookings {
		out[k] = v
	}
	return out
}

// LoadRoutes devolve as rotas na ordem de exibição.
func (s *InMemorySeatingStore) LoadRoutes(context.Context) ([]domain.RouteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.routes))
	slices.SortFunc(out, func(a, b domain.RouteRecord) int { return cmp.Compare(a.Position, b.Position) })
	return out, nil
}

func (s *InMemorySeatingStore) LastBookingID(context.Context) (domain.BookingID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last domain.BookingID
	for id := range s.bookings {
		last = max(last, id)
	}
	return last, nil
}

func (s *InMemorySeatingStore) LoadBookings(context.Context) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.bookings))
	slices.SortFunc(out, func(a, b domain.Booking) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
