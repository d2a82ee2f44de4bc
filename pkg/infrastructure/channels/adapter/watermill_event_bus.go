package adapter

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/mateusmacedo/go-seatbooking/pkg/application"
	"github.com/mateusmacedo/go-seatbooking/pkg/domain"
	"github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
)

// WatermillEventBus publica eventos em qualquer transporte watermill (go-channel, Redis Streams, Kafka)
// e entrega as mensagens recebidas aos manipuladores registrados. O nome do evento é o tópico.
type WatermillEventBus[E domain.Event[D], D any] struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     application.AppLogger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatermillEventBus[E domain.Event[D], D any](publisher message.Publisher, subscriber message.Subscriber, logger application.AppLogger) *WatermillEventBus[E, D] {
	ctx, cancel := context.WithCancel(context.Background())
	return &WatermillEventBus[E, D]{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NewGoChannelPubSub cria o transporte em memória usado quando nenhum broker está configurado.
func NewGoChannelPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

// RegisterHandler abre uma assinatura por manipulador; cada mensagem é confirmada somente após o processamento.
func (bus *WatermillEventBus[E, D]) RegisterHandler(eventName string, handler application.EventHandler[E, D]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	messages, err := bus.subscriber.Subscribe(bus.ctx, eventName)
	if err != nil {
		application.LogError(bus.ctx, bus.logger, "error subscribing to event", err, map[string]interface{}{
			"event_name": eventName,
		})
		return
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		for msg := range messages {
			bus.handleMessage(eventName, handler, msg)
		}
	}()
}

func (bus *WatermillEventBus[E, D]) handleMessage(eventName string, handler application.EventHandler[E, D], msg *message.Message) {
	ctx := bus.ctx
	payload, err := application.UnmarshalPayload[D](msg.Payload)
	if err != nil {
		application.LogError(ctx, bus.logger, "error unmarshalling event payload", err, map[string]interface{}{
			"event_name": eventName,
			"message_id": msg.UUID,
		})
		// payload inválido nunca será processado; confirmar evita reentrega infinita
		msg.Ack()
		return
	}

	typedEvent, ok := interface{}(infrastructure.DynamicEvent[D]{Name: eventName, Data: payload}).(E)
	if !ok {
		application.LogError(ctx, bus.logger, "error asserting event type", nil, map[string]interface{}{
			"event_name": eventName,
		})
		msg.Ack()
		return
	}

	if err := handler.Handle(ctx, typedEvent); err != nil {
		application.LogError(ctx, bus.logger, "error handling event", err, map[string]interface{}{
			"event_name": eventName,
			"message_id": msg.UUID,
		})
		msg.Nack()
		return
	}

	application.LogDebug(ctx, bus.logger, "event handled", map[string]interface{}{
		"event_name": eventName,
		"message_id": msg.UUID,
	})
	msg.Ack()
}

func (bus *WatermillEventBus[E, D]) Publish(ctx context.Context, event E) error {
	eventName := event.EventName()

	payload, err := application.MarshalPayload(event.Payload())
	if err != nil {
		application.LogError(ctx, bus.logger, "error marshalling event payload", err, map[string]interface{}{
			"event_name": eventName,
		})
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_name", eventName)
	msg.SetContext(ctx)

	if err := bus.publisher.Publish(eventName, msg); err != nil {
		application.LogError(ctx, bus.logger, "error publishing event", err, map[string]interface{}{
			"event_name": eventName,
		})
		return err
	}

	application.LogInfo(ctx, bus.logger, "event published", map[string]interface{}{
		"event_name": eventName,
		"message_id": msg.UUID,
	})
	return nil
}

// Close encerra as assinaturas e aguarda os consumidores em andamento.
func (bus *WatermillEventBus[E, D]) Close() error {
	bus.cancel()
	err := bus.subscriber.Close()
	bus.wg.Wait()
	return err
}
