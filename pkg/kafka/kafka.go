package kafka

import (
	"github.com/IBM/sarama"
)

// BorrowEventsTopic receives borrow lifecycle events (created, returned, deleted).
const BorrowEventsTopic = "borrow-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

// Enabled reports whether any broker is configured. The service runs
// without kafka when the address list is empty.
func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
