package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaQueue publishes notification tasks to a topic instead of handling
// them in-process, so delivery can be drained by any instance.
type KafkaQueue struct {
	writer  *kafka.Writer
	timeout time.Duration
	logger  *zap.Logger
}

func NewKafkaQueue(brokers []string, topic string, timeout time.Duration, logger *zap.Logger) *KafkaQueue {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaQueue{writer: writer, timeout: timeout, logger: logger}
}

func (q *KafkaQueue) Enqueue(task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal notification task: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.OrderID.String()),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish notification task: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

// KafkaConsumer drains the notification topic and delivers each task.
type KafkaConsumer struct {
	reader  *kafka.Reader
	mailer  Mailer
	logger  *zap.Logger
	timeout time.Duration
}

func NewKafkaConsumer(brokers []string, topic, groupID string, mailer Mailer, timeout time.Duration, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &KafkaConsumer{reader: reader, mailer: mailer, logger: logger, timeout: timeout}
}

func (c *KafkaConsumer) Run(ctx context.Context) {
	c.logger.Info("notification consumer started")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("fetch notification message failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var task Task
		if err := json.Unmarshal(m.Value, &task); err != nil {
			c.logger.Error("undecodable notification task, skipping",
				zap.Int64("offset", m.Offset), zap.Error(err))
		} else {
			dctx, cancel := context.WithTimeout(ctx, c.timeout)
			deliver(dctx, c.mailer, c.logger, task)
			cancel()
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit notification offset failed",
				zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
