package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"safaristay/internal/config"
	"safaristay/internal/pkg/logger"
)

// KafkaPublisher writes events to the notifications topic keyed by booking
// reference so updates for one booking stay ordered.
type KafkaPublisher struct {
	topic  string
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		topic: cfg.NotificationTopic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.NotificationTopic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.BookingRef),
		Value: data,
		Time:  ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("write notification to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads notification events and hands them to a Sender.
type Consumer struct {
	reader messageReader
	sender Sender
	log    logrus.FieldLogger
}

func NewConsumer(cfg config.KafkaConfig, sender Sender, log logrus.FieldLogger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.NotificationTopic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), sender, log)
}

func newConsumer(r messageReader, sender Sender, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader: r,
		sender: sender,
		log:    logger.OrDiscard(log).WithField("component", "notification_consumer"),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume runs until ctx is cancelled. Undecodable messages and failed sends
// are logged and committed; delivery is best effort.
func (c *Consumer) Consume(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.WithFields(logrus.Fields{
			"offset": msg.Offset,
			"error":  err.Error(),
		}).Warn("notification_decode_failed")
		return
	}
	if err := c.sender.Send(ctx, ev); err != nil {
		c.log.WithFields(logrus.Fields{
			"type":       ev.Type,
			"booking_id": ev.BookingRef,
			"error":      err.Error(),
		}).Warn("notification_send_failed")
	}
}
