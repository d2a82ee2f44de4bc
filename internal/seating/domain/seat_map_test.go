package domain

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestSeatMap_ReserveThenUnavailable(t *testing.T) {
	m := NewSeatMap(DefaultRows, DefaultColumns)

	for n := 1; n <= m.Capacity(); n++ {
		if err := m.Reserve(n); err != nil {
			t.Fatalf("reserve %d: %v", n, err)
		}
		ok, err := m.IsAvailable(n)
		if err != nil {
			t.Fatalf("is available %d: %v", n, err)
		}
		if ok {
			t.Fatalf("seat %d still available after reserve", n)
		}
		if err := m.Reserve(n); !errors.Is(err, ErrAlreadyBooked) {
			t.Fatalf("second reserve of %d: expected ErrAlreadyBooked, got %v", n, err)
		}
	}
}

func TestSeatMap_OutOfRange(t *testing.T) {
	m := NewSeatMap(DefaultRows, DefaultColumns)

	for _, n := range []int{0, -1, 36} {
		if _, err := m.IsAvailable(n); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("IsAvailable(%d): expected ErrOutOfRange, got %v", n, err)
		}
		if err := m.Reserve(n); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Reserve(%d): expected ErrOutOfRange, got %v", n, err)
		}
	}
}

func TestSeatMap_ConcurrentReserveSameSeat(t *testing.T) {
	const k = 64
	m := NewSeatMap(DefaultRows, DefaultColumns)

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- m.Reserve(7)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyBooked):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != k-1 {
		t.Fatalf("expected 1 win and %d losses, got %d and %d", k-1, wins, losses)
	}
}

func TestSeatMap_ConcurrentReserveDifferentSeats(t *testing.T) {
	m := NewSeatMap(DefaultRows, DefaultColumns)

	var wg sync.WaitGroup
	for n := 1; n <= m.Capacity(); n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := m.Reserve(n); err != nil {
				t.Errorf("reserve %d: %v", n, err)
			}
		}(n)
	}
	wg.Wait()

	if got := m.AvailableCount(); got != 0 {
		t.Fatalf("expected no seats left, got %d", got)
	}
}

func TestSeatMap_Position(t *testing.T) {
	m := NewSeatMap(7, 5)

	cases := []struct{ seat, row, col int }{
		{1, 0, 0},
		{5, 0, 4},
		{6, 1, 0},
		{12, 2, 1},
		{35, 6, 4},
	}
	for _, c := range cases {
		row, col, err := m.Position(c.seat)
		if err != nil {
			t.Fatalf("position %d: %v", c.seat, err)
		}
		if row != c.row || col != c.col {
			t.Fatalf("seat %d: expected (%d,%d), got (%d,%d)", c.seat, c.row, c.col, row, col)
		}
	}
	if _, _, err := m.Position(36); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestSeatMap_AvailableIsRestartableAndAscending(t *testing.T) {
	m := NewSeatMap(2, 3)
	if err := m.Reserve(2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := m.Reserve(5); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	want := []int{1, 3, 4, 6}
	first := slices.Collect(m.Available())
	second := slices.Collect(m.Available())
	if !slices.Equal(first, want) || !slices.Equal(second, want) {
		t.Fatalf("expected %v twice, got %v and %v", want, first, second)
	}

	var partial []int
	for n := range m.Available() {
		partial = append(partial, n)
		if len(partial) == 2 {
			break
		}
	}
	if !slices.Equal(partial, []int{1, 3}) {
		t.Fatalf("early break: got %v", partial)
	}
}

func TestSeatMap_Render(t *testing.T) {
	m := NewSeatMap(2, 5)
	if err := m.Reserve(3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := m.Reserve(6); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(m.Render(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d: %q", len(lines), lines)
	}
	if want := "1   2     X   4   5   "; lines[0] != want {
		t.Fatalf("row 0: expected %q, got %q", want, lines[0])
	}
	if want := "X   7     8   9   10  "; lines[1] != want {
		t.Fatalf("row 1: expected %q, got %q", want, lines[1])
	}
}
