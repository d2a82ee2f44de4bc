package domain

import (
	"errors"
	"fmt"
)

// Erros de validação do domínio. Todos são detectados antes de qualquer mutação,
// exceto ErrAlreadyBooked, que também pode surgir sob disputa concorrente.
var (
	ErrOutOfRange         = errors.New("seat number out of range")
	ErrAlreadyBooked      = errors.New("seat already booked")
	ErrDuplicateSeat      = errors.New("seat requested more than once")
	ErrInvalidTicketCount = errors.New("invalid ticket count")
	ErrEmptyName          = errors.New("passenger name must not be empty")
	ErrInvalidFare        = errors.New("fare must not be negative")
	ErrIndexOutOfRange    = errors.New("route index out of range")
	ErrRouteNotFound      = errors.New("route not found")
	ErrDuplicateRoute     = errors.New("route already exists")
	ErrPersistence        = errors.New("persistence failure")
)

// PersistenceError indica que a escrita durável falhou. O estado em memória
// já foi revertido quando este erro chega ao chamador.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsValidation reporta se err é um erro de validação de entrada.
func IsValidation(err error) bool {
	return errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrDuplicateSeat) ||
		errors.Is(err, ErrInvalidTicketCount) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidFare)
}
