package kafka

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/drawcard/drawcard/internal/config"
)

// GetSaramaConfig builds the shared sarama configuration. Returns nil when
// kafka is disabled so callers can skip producer construction entirely.
func GetSaramaConfig(cfg *config.Configuration) *sarama.Config {
	if !cfg.Kafka.Enabled {
		return nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_1_0_0
	saramaConfig.ClientID = cfg.Kafka.ClientID

	// Marketing fan-out is best effort: bound the time a publish can take so
	// a broker outage can never stall a caller.
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Timeout = 5 * time.Second
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Retry.Max = 3

	return saramaConfig
}

// NewSyncProducer creates a producer from configuration, or nil when kafka is
// disabled.
func NewSyncProducer(cfg *config.Configuration) (sarama.SyncProducer, error) {
	saramaConfig := GetSaramaConfig(cfg)
	if saramaConfig == nil {
		return nil, nil
	}
	return sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaConfig)
}
