package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/models"
)

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries as JSON, keyed by entity id so one order's history stays on one partition.
type KafkaSink struct {
	writer MessageWriter
	logger *zap.Logger
}

const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaSink builds an async writer: WriteMessages only enqueues, and delivery
// failures surface through completed.
func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) *KafkaSink {
	s := &KafkaSink{logger: logger}
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: kafkaBatchTimeout,
		Async:        true,
		Completion:   s.completed,
	}
	return s
}

func NewKafkaSinkWithWriter(w MessageWriter, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{writer: w, logger: logger}
}

func (s *KafkaSink) Write(ctx context.Context, entry models.AuditEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(entry.EntityType + "#" + entry.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(entry.Action)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("audit entry queued", zap.String("id", entry.ID), zap.String("action", entry.Action))
	return nil
}

func (s *KafkaSink) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		s.logger.Warn("audit entry not delivered", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

func (s *KafkaSink) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
