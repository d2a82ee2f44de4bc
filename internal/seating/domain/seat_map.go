package domain

import (
	"fmt"
	"iter"
	"strings"
	"sync"
)

const (
	DefaultRows    = 7
	DefaultColumns = 5

	// aisleAfterColumn é o índice (base zero) da coluna após a qual o corredor é desenhado.
	aisleAfterColumn = 1
)

type SeatState uint8

const (
	SeatAvailable SeatState = iota
	SeatPending
	SeatBooked
)

func (s SeatState) String() string {
	switch s {
	case SeatAvailable:
		return "available"
	case SeatPending:
		return "pending"
	case SeatBooked:
		return "booked"
	default:
		return fmt.Sprintf("SeatState(%d)", uint8(s))
	}
}

// SeatMap é a grade fixa de assentos de uma rota. Os estados ficam em um
// slice de tamanho fixo endereçado por número-1 e protegido por um mutex por rota.
type SeatMap struct {
	rows    int
	columns int

	mu     sync.Mutex
	states []SeatState
}

func NewSeatMap(rows, columns int) *SeatMap {
	if rows < 1 || columns < 1 {
		panic(fmt.Sprintf("seat map geometry must be positive, got %dx%d", rows, columns))
	}
	return &SeatMap{
		rows:    rows,
		columns: columns,
		states:  make([]SeatState, rows*columns),
	}
}

func (m *SeatMap) Rows() int     { return m.rows }
func (m *SeatMap) Columns() int  { return m.columns }
func (m *SeatMap) Capacity() int { return m.rows * m.columns }

func (m *SeatMap) checkRange(seat int) error {
	if seat < 1 || seat > m.Capacity() {
		return fmt.Errorf("%w: seat %d not in [1, %d]", ErrOutOfRange, seat, m.Capacity())
	}
	return nil
}

// Position converte o número do assento em linha e coluna, ambas base zero.
func (m *SeatMap) Position(seat int) (row, col int, err error) {
	if err := m.checkRange(seat); err != nil {
		return 0, 0, err
	}
	return (seat - 1) / m.columns, (seat - 1) % m.columns, nil
}

func (m *SeatMap) IsAvailable(seat int) (bool, error) {
	if err := m.checkRange(seat); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[seat-1] == SeatAvailable, nil
}

// Reserve marca um único assento como reservado.
func (m *SeatMap) Reserve(seat int) error {
	if err := m.checkRange(seat); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[seat-1] != SeatAvailable {
		return fmt.Errorf("%w: seat %d", ErrAlreadyBooked, seat)
	}
	m.states[seat-1] = SeatBooked
	return nil
}

// Available percorre os assentos livres em ordem crescente. Cada iteração
// trabalha sobre uma cópia tirada no início, então pode ser reiniciada.
func (m *SeatMap) Available() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, state := range m.snapshot() {
			if state != SeatAvailable {
				continue
			}
			if !yield(i + 1) {
				return
			}
		}
	}
}

func (m *SeatMap) AvailableCount() int {
	n := 0
	for range m.Available() {
		n++
	}
	return n
}

func (m *SeatMap) snapshot() []SeatState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeatState(nil), m.states...)
}

// Render desenha a grade: números livres alinhados à esquerda, "X" para ocupados
// e um corredor entre as colunas 1 e 2.
func (m *SeatMap) Render() string {
	states := m.snapshot()
	var b strings.Builder
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.columns; col++ {
			if col == aisleAfterColumn+1 {
				b.WriteString("  ")
			}
			seat := row*m.columns + col + 1
			if states[seat-1] == SeatAvailable {
				fmt.Fprintf(&b, "%-3d ", seat)
			} else {
				b.WriteString("X   ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// transact executa fn com o mutex da rota adquirido. Estados pendentes criados
// dentro de fn nunca são visíveis fora dele.
func (m *SeatMap) transact(fn func(tx *seatTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &seatTx{m: m}
	err := fn(tx)
	if err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

type seatTx struct {
	m       *SeatMap
	pending []int
}

func (tx *seatTx) reserve(seat int) error {
	if err := tx.m.checkRange(seat); err != nil {
		return err
	}
	if tx.m.states[seat-1] != SeatAvailable {
		return fmt.Errorf("%w: seat %d", ErrAlreadyBooked, seat)
	}
	tx.m.states[seat-1] = SeatPending
	tx.pending = append(tx.pending, seat)
	return nil
}

func (tx *seatTx) commit() {
	for _, seat := range tx.pending {
		tx.m.states[seat-1] = SeatBooked
	}
	tx.pending = nil
}

func (tx *seatTx) rollback() {
	for _, seat := range tx.pending {
		tx.m.states[seat-1] = SeatAvailable
	}
	tx.pending = nil
}
