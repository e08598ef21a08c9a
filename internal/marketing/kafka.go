package marketing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/drawcard/drawcard/internal/config"
)

// kafkaSink publishes track events to a kafka topic for downstream marketing
// consumers.
type kafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink wraps a sarama producer as a marketing sink.
func NewKafkaSink(cfg *config.Configuration, producer sarama.SyncProducer) Sink {
	return &kafkaSink{
		producer: producer,
		topic:    fmt.Sprintf("%s.marketing", cfg.Kafka.TopicPrefix),
	}
}

func (s *kafkaSink) Name() string {
	return "kafka"
}

func (s *kafkaSink) Deliver(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		// Key by account so one account's events stay ordered per partition.
		Key:   sarama.StringEncoder(event.AccountID),
		Value: sarama.ByteEncoder(payload),
	}

	op := func() error {
		_, _, err := s.producer.SendMessage(msg)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(200*time.Millisecond),
			backoff.WithMaxInterval(2*time.Second),
		), 3),
		ctx,
	)
	return backoff.Retry(op, policy)
}
