package domain

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

type RouteID string

// Route é imutável após a criação, exceto pelo estado dos assentos do seu SeatMap.
type Route struct {
	ID          RouteID
	Source      string
	Destination string
	AdultFare   decimal.Decimal
	seats       *SeatMap
}

func (r *Route) Seats() *SeatMap { return r.seats }

// Label é o rótulo "Origem to Destino" gravado junto de cada reserva.
func (r *Route) Label() string {
	return r.Source + " to " + r.Destination
}

// RouteRecord é a projeção de uma rota entregue à camada de persistência.
type RouteRecord struct {
	ID          RouteID
	Position    int
	Source      string
	Destination string
	AdultFare   decimal.Decimal
	Rows        int
	Columns     int
}

type RouteStore interface {
	SaveRoute(ctx context.Context, route RouteRecord) error
	LoadRoutes(ctx context.Context) ([]RouteRecord, error)
}

type RouteSummary struct {
	Index       int             `json:"index"`
	ID          RouteID         `json:"id"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	AdultFare   decimal.Decimal `json:"adultFare"`
	Available   int             `json:"availableSeats"`
	Capacity    int             `json:"capacity"`
}

// RouteCatalog guarda as rotas na ordem de inserção, que também é a ordem de exibição.
type RouteCatalog struct {
	mu          sync.RWMutex
	routes      []*Route
	byID        map[RouteID]*Route
	rows        int
	columns     int
	store       RouteStore
	idGenerator pkgDomain.IDGenerator[string]
}

func NewRouteCatalog(rows, columns int, store RouteStore, idGenerator pkgDomain.IDGenerator[string]) *RouteCatalog {
	return &RouteCatalog{
		byID:        make(map[RouteID]*Route),
		rows:        rows,
		columns:     columns,
		store:       store,
		idGenerator: idGenerator,
	}
}

func (c *RouteCatalog) AddRoute(ctx context.Context, source, destination string, fare decimal.Decimal) (RouteID, error) {
	return c.AddRouteWithID(ctx, RouteID(c.idGenerator()), source, destination, fare)
}

// AddRouteWithID valida a tarifa, grava a rota e só então a publica no catálogo.
func (c *RouteCatalog) AddRouteWithID(ctx context.Context, id RouteID, source, destination string, fare decimal.Decimal) (RouteID, error) {
	if fare.IsNegative() {
		return "", fmt.Errorf("%w: %s", ErrInvalidFare, fare)
	}

	route := &Route{
		ID:          id,
		Source:      source,
		Destination: destination,
		AdultFare:   fare,
		seats:       NewSeatMap(c.rows, c.columns),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateRoute, id)
	}

	record := RouteRecord{
		ID:          route.ID,
		Position:    len(c.routes) + 1,
		Source:      source,
		Destination: destination,
		AdultFare:   fare,
		Rows:        c.rows,
		Columns:     c.columns,
	}
	if err := c.store.SaveRoute(ctx, record); err != nil {
		return "", &PersistenceError{Op: "save route", Err: err}
	}

	c.routes = append(c.routes, route)
	c.byID[route.ID] = route
	return route.ID, nil
}

// restore publica uma rota já gravada, com a geometria com que foi criada.
func (c *RouteCatalog) restore(record RouteRecord) error {
	if record.Rows < 1 || record.Columns < 1 {
		return fmt.Errorf("route %s has invalid geometry %dx%d", record.ID, record.Rows, record.Columns)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[record.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, record.ID)
	}
	route := &Route{
		ID:          record.ID,
		Source:      record.Source,
		Destination: record.Destination,
		AdultFare:   record.AdultFare,
		seats:       NewSeatMap(record.Rows, record.Columns),
	}
	c.routes = append(c.routes, route)
	c.byID[route.ID] = route
	return nil
}

func summarize(index int, r *Route) RouteSummary {
	return RouteSummary{
		Index:       index,
		ID:          r.ID,
		Source:      r.Source,
		Destination: r.Destination,
		AdultFare:   r.AdultFare,
		Available:   r.seats.AvailableCount(),
		Capacity:    r.seats.Capacity(),
	}
}

func (c *RouteCatalog) List() []RouteSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]RouteSummary, 0, len(c.routes))
	for i, r := range c.routes {
		out = append(out, summarize(i+1, r))
	}
	return out
}

// Summary descreve a rota com o número de exibição que ela ocupa no catálogo.
func (c *RouteCatalog) Summary(id RouteID) (RouteSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, r := range c.routes {
		if r.ID == id {
			return summarize(i+1, r), nil
		}
	}
	return RouteSummary{}, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
}

// Get busca pela posição de exibição, começando em 1.
func (c *RouteCatalog) Get(index int) (*Route, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index < 1 || index > len(c.routes) {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrIndexOutOfRange, index, len(c.routes))
	}
	return c.routes[index-1], nil
}

func (c *RouteCatalog) Find(id RouteID) (*Route, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	route, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}
	return route, nil
}

func (c *RouteCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}
