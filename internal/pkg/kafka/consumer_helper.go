package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	batchSize    = 16
	batchTimeout = 1 * time.Second
	maxRetry     = 5
)

var (
	ErrTableMismatch = errors.New("canal table name not match")
	ErrEmptyData     = errors.New("canal message data is empty")
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 按数量或超时凑批处理
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		processBatch(session, batch, logic)
		batch = make([]*sarama.ConsumerMessage, 0, batchSize)
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			flush()
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 同一账号的事件需要保序，分区内按顺序处理，分区间并发
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	byPartition := make(map[int32][]*sarama.ConsumerMessage)
	for _, msg := range messages {
		byPartition[msg.Partition] = append(byPartition[msg.Partition], msg)
	}

	var wg sync.WaitGroup
	for _, msgs := range byPartition {
		wg.Add(1)
		go func(msgs []*sarama.ConsumerMessage) {
			defer wg.Done()
			for _, m := range msgs {
				runWithRetry(session.Context(), m, logic)
				session.MarkMessage(m, "")
			}
		}(msgs)
	}
	wg.Wait()
}

// runWithRetry 指数退避重试，超过次数后丢弃并记录
func runWithRetry(ctx context.Context, msg *sarama.ConsumerMessage, logic LogicFunc) {
	retryInterval := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := logic(ctx, msg)
		if err == nil {
			return
		}
		if errors.Is(err, ErrTableMismatch) || errors.Is(err, ErrEmptyData) {
			return
		}
		if attempt >= maxRetry {
			log.ErrorContext(ctx, "drop message after retries",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
			return
		}

		log.WarnContext(ctx, "process message error", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
		}
		retryInterval *= 2
		if retryInterval > 5*time.Second {
			retryInterval = 5 * time.Second
		}
	}
}

// ToCanalMessage 将 kafka 消息转换为 canal 消息结构体
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, errors.Wrap(err, "unmarshal canal message")
	}

	if canalMsg.Table != tableName {
		return nil, errors.Wrapf(ErrTableMismatch, "got %s", canalMsg.Table)
	}

	if len(canalMsg.Data) == 0 {
		return nil, ErrEmptyData
	}

	return &canalMsg, nil
}
