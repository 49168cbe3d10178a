package kafka

import (
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"

	"github.com/IBM/sarama"
)

// newSaramaConfig 账号变更消费者的 sarama 配置，手动提交 offset
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Offsets.AutoCommit.Enable = false

	c.Consumer.Group.Session.Timeout = seconds(kafkaCfg.Consumer.SessionTimeout, 10)
	c.Consumer.Group.Heartbeat.Interval = seconds(kafkaCfg.Consumer.HeartbeatInterval, 3)
	c.Consumer.Group.Rebalance.Timeout = seconds(kafkaCfg.Consumer.RebalanceTimeout, 60)
	// populate 会调用外部接口，处理时间留足
	c.Consumer.MaxProcessingTime = seconds(kafkaCfg.Consumer.MaxProcessingTime, 60)

	return c
}

func seconds(v int, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
