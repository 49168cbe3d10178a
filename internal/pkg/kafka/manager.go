package kafka

import (
	"context"
	log "log/slog"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理账号变更消费者
type ConsumerManager struct {
	topic          string
	accountGroup   sarama.ConsumerGroup
	accountHandler sarama.ConsumerGroupHandler
}

func NewConsumerManager(
	cfg *config.Config,
	populator service.ProfilePopulator,
	cacheSvc service.ProfileCacheService,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	accountGroup, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaAccountConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		topic:          cfg.KafkaAccountConsumer.Topic,
		accountGroup:   accountGroup,
		accountHandler: NewAccountHandler(cfg.KafkaAccountConsumer.Table, populator, cacheSvc),
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.accountGroup.Errors() {
			log.Error("account consumer group error", "err", err)
		}
	}()

	go func() {
		log.Info("account consumer started", "topic", m.topic)
		for {
			if err := m.accountGroup.Consume(ctx, []string{m.topic}, m.accountHandler); err != nil {
				log.Error("error from account consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.accountGroup.Close(); err != nil {
		log.Error("failed to close account consumer", "err", err)
	}
	return nil
}
