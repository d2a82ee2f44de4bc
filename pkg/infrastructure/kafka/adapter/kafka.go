package adapter

import (
	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
)

// NewSaramaSubscriberConfig lê os tópicos desde o início para que nenhum evento de reserva seja perdido na primeira execução.
func NewSaramaSubscriberConfig(clientID string) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V1_0_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.ClientID = clientID
	return saramaConfig
}

func NewKafkaPubSub(brokers []string, consumerGroup, clientID string, logger watermill.LoggerAdapter) (*kafka.Publisher, *kafka.Subscriber, error) {
	marshaler := kafka.DefaultMarshaler{}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           marshaler,
		ConsumerGroup:         consumerGroup,
		OverwriteSaramaConfig: NewSaramaSubscriberConfig(clientID),
		InitializeTopicDetails: &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}, logger)
	if err != nil {
		_ = publisher.Close()
		return nil, nil, err
	}

	return publisher, subscriber, nil
}

// InitializeTopics cria os tópicos antecipadamente, como o subscriber faria na primeira assinatura.
func InitializeTopics(subscriber *kafka.Subscriber, topics ...string) error {
	for _, topic := range topics {
		if err := subscriber.SubscribeInitialize(topic); err != nil {
			return err
		}
	}
	return nil
}
