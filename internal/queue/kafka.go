package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"pokerhand/internal/domain"
)

type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Kafka{
		producer: producer,
		topic:    topic,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, sub domain.Submission) error {
	data, err := Encode(sub)
	if err != nil {
		return err
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(sub.ID),
		Value: sarama.ByteEncoder(data),
	})

	return err
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}

type KafkaConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	log     *slog.Logger
	handler Handler

	// attempts per message before the session is abandoned
	attempts int
	backoff  time.Duration
}

func NewKafkaConsumer(brokers []string, groupID, topic string, log *slog.Logger) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		group:    group,
		topic:    topic,
		log:      log,
		attempts: 5,
		backoff:  500 * time.Millisecond,
	}, nil
}

func (c *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	c.handler = handler

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
				return err
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.group.Close()
}

func (c *KafkaConsumer) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (c *KafkaConsumer) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks undecodable messages so a poison payload cannot stall the partition.
// A message whose handler keeps failing is never marked, and nothing after it is either:
// the claim returns an error, the session ends and the group resumes from the last
// committed offset.
func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		sub, err := Decode(msg.Value)
		if err != nil {
			c.log.Warn("queue.decode_failed", "offset", msg.Offset, "partition", msg.Partition, "err", err)
			session.MarkMessage(msg, "")
			continue
		}

		if err := c.handle(session.Context(), sub); err != nil {
			c.log.Error("queue.handler_failed", "id", sub.ID, "offset", msg.Offset, "partition", msg.Partition, "err", err)
			return fmt.Errorf("offset %d on partition %d: %w", msg.Offset, msg.Partition, err)
		}

		session.MarkMessage(msg, "")
	}
	return nil
}

// handle runs the handler with exponential backoff between attempts.
func (c *KafkaConsumer) handle(ctx context.Context, sub domain.Submission) error {
	attempts := max(c.attempts, 1)
	wait := c.backoff

	var err error
	for i := 0; i < attempts; i++ {
		if err = c.handler(ctx, sub); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		c.log.Warn("queue.retry", "id", sub.ID, "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
