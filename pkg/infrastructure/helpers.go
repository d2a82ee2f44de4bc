package infrastructure

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoHandler é retornado quando nenhuma mensagem corresponde a um manipulador registrado.
var ErrNoHandler = errors.New("no handler registered")

func GenerateUUID() string {
	return uuid.New().String()
}

// DynamicEvent reconstrói um evento a partir do nome do tópico e do payload recebido de um transporte.
type DynamicEvent[D any] struct {
	Name string
	Data D
}

func (e DynamicEvent[D]) EventName() string {
	return e.Name
}

func (e DynamicEvent[D]) Payload() D {
	return e.Data
}
