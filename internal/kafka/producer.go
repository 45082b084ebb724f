package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/IBM/sarama"
)

// Топики событий жизненного цикла подписок
const (
	TopicSubscriptionCreated      = "subscription_created"
	TopicSubscriptionCharged      = "subscription_charged"
	TopicSubscriptionChargeFailed = "subscription_charge_failed"
)

// Producer определяет интерфейс для публикации событий подписок в Kafka.
type Producer interface {
	// PublishSubscriptionEvent отправляет событие, связанное с подпиской.
	// Ключом сообщения служит subscription_id: все события одной подписки
	// попадают в одну партицию и сохраняют порядок.
	PublishSubscriptionEvent(ctx context.Context, topic string, sub *domain.Subscription) error

	// Close закрывает соединение продюсера Kafka.
	Close() error
}

// saramaProducer реализует интерфейс Producer через IBM/sarama.
type saramaProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewProducer создает и настраивает новый продюсер Kafka.
func NewProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	cfg := sarama.NewConfig()
	// Ждем подтверждения только от лидера партиции:
	// баланс между скоростью и надежностью
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create producer: %w", err)
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return &saramaProducer{
		producer: producer,
		log:      log,
	}, nil
}

// PublishSubscriptionEvent преобразует подписку в JSON и отправляет в указанный топик
func (p *saramaProducer) PublishSubscriptionEvent(ctx context.Context, topic string, sub *domain.Subscription) error {
	value, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal subscription: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(sub.SubscriptionID.String()),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish subscription event", "error", err, "topic", topic, "subscription_id", sub.SubscriptionID)
		return fmt.Errorf("kafka: failed to send message: %w", err)
	}

	p.log.Debugw("Subscription event published",
		"topic", topic,
		"subscription_id", sub.SubscriptionID,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close закрывает соединение продюсера
func (p *saramaProducer) Close() error {
	return p.producer.Close()
}

// NoOpProducer заглушка продюсера для окружений без Kafka
type NoOpProducer struct{}

// PublishSubscriptionEvent ничего не делает
func (NoOpProducer) PublishSubscriptionEvent(ctx context.Context, topic string, sub *domain.Subscription) error {
	return nil
}

// Close ничего не делает
func (NoOpProducer) Close() error {
	return nil
}
