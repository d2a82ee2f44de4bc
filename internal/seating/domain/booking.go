package domain

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

type (
	BookingID uint64
	UserRef   string
)

// Booking é criada apenas por um commit bem-sucedido e nunca é alterada.
type Booking struct {
	ID            BookingID       `json:"id"`
	AllocationID  string          `json:"allocationId"`
	User          UserRef         `json:"user"`
	RouteID       RouteID         `json:"routeId"`
	RouteLabel    string          `json:"route"`
	PassengerName string          `json:"passengerName"`
	SeatNumber    int             `json:"seatNumber"`
	Fare          decimal.Decimal `json:"fare"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LedgerEntry contém os dados de uma reserva ainda sem identificador.
type LedgerEntry struct {
	AllocationID  string
	User          UserRef
	RouteID       RouteID
	RouteLabel    string
	PassengerName string
	SeatNumber    int
	Fare          decimal.Decimal
}

// BookingStore grava um lote de reservas de forma atômica: todas ou nenhuma.
// LastBookingID devolve o maior ID já gravado, ou zero quando não há reservas.
type BookingStore interface {
	SaveBookings(ctx context.Context, bookings []Booking) error
	LastBookingID(ctx context.Context) (BookingID, error)
	LoadBookings(ctx context.Context) ([]Booking, error)
}

// BookingLedger é o registro somente-acréscimo de reservas confirmadas.
// Os IDs vêm de um contador monotônico; um ID consumido por um lote que
// falhou na persistência nunca é reutilizado.
type BookingLedger struct {
	lastID atomic.Uint64
	store  BookingStore
	now    func() time.Time

	mu           sync.RWMutex
	entries      []Booking
	index        map[BookingID]int
	byAllocation map[string][]int
}

// NewBookingLedger continua a numeração a partir do maior ID já gravado no store.
func NewBookingLedger(ctx context.Context, store BookingStore) (*BookingLedger, error) {
	last, err := store.LastBookingID(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load last booking id", Err: err}
	}

	l := &BookingLedger{
		store:        store,
		now:          time.Now,
		index:        make(map[BookingID]int),
		byAllocation: make(map[string][]int),
	}
	l.lastID.Store(uint64(last))
	return l, nil
}

func (l *BookingLedger) Append(ctx context.Context, entry LedgerEntry) (BookingID, error) {
	ids, err := l.AppendBatch(ctx, []LedgerEntry{entry})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AppendBatch persiste o lote e só então o acrescenta ao registro em memória.
func (l *BookingLedger) AppendBatch(ctx context.Context, entries []LedgerEntry) ([]BookingID, error) {
	for _, e := range entries {
		if strings.TrimSpace(e.PassengerName) == "" {
			return nil, fmt.Errorf("%w: seat %d", ErrEmptyName, e.SeatNumber)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	last := l.lastID.Add(uint64(len(entries)))
	first := last - uint64(len(entries)) + 1
	createdAt := l.now().UTC()

	bookings := make([]Booking, len(entries))
	ids := make([]BookingID, len(entries))
	for i, e := range entries {
		id := BookingID(first + uint64(i))
		ids[i] = id
		bookings[i] = Booking{
			ID:            id,
			AllocationID:  e.AllocationID,
			User:          e.User,
			RouteID:       e.RouteID,
			RouteLabel:    e.RouteLabel,
			PassengerName: strings.TrimSpace(e.PassengerName),
			SeatNumber:    e.SeatNumber,
			Fare:          e.Fare,
			CreatedAt:     createdAt,
		}
	}

	if err := l.store.SaveBookings(ctx, bookings); err != nil {
		return nil, &PersistenceError{Op: "save bookings", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range bookings {
		l.appendLocked(b)
	}
	return ids, nil
}

func (l *BookingLedger) appendLocked(b Booking) {
	pos := len(l.entries)
	l.entries = append(l.entries, b)
	l.index[b.ID] = pos
	if b.AllocationID != "" {
		l.byAllocation[b.AllocationID] = append(l.byAllocation[b.AllocationID], pos)
	}
}

// restore acrescenta uma reserva já gravada, sem persistir de novo, e garante
// que o contador nunca devolva um ID menor ou igual ao dela.
func (l *BookingLedger) restore(b Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[b.ID]; exists {
		return fmt.Errorf("booking %d restored twice", b.ID)
	}
	l.appendLocked(b)

	for {
		last := l.lastID.Load()
		if last >= uint64(b.ID) || l.lastID.CompareAndSwap(last, uint64(b.ID)) {
			return nil
		}
	}
}

// TotalFareFor soma as tarifas gravadas; IDs desconhecidos são ignorados.
func (l *BookingLedger) TotalFareFor(ids []BookingID) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, id := range ids {
		if pos, ok := l.index[id]; ok {
			total = total.Add(l.entries[pos].Fare)
		}
	}
	return total
}

func (l *BookingLedger) Get(id BookingID) (Booking, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.index[id]
	if !ok {
		return Booking{}, false
	}
	return l.entries[pos], true
}

func (l *BookingLedger) ByAllocation(allocationID string) []Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := l.byAllocation[allocationID]
	out := make([]Booking, 0, len(positions))
	for _, pos := range positions {
		out = append(out, l.entries[pos])
	}
	return out
}

func (l *BookingLedger) ByPassenger(passengerName string) []Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Booking
	for _, b := range l.entries {
		if b.PassengerName == passengerName {
			out = append(out, b)
		}
	}
	// lotes de rotas diferentes podem ser gravados fora da ordem dos IDs
	slices.SortFunc(out, func(a, b Booking) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (l *BookingLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
