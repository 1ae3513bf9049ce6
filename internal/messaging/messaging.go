package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

// Message is a record read from or written to the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message.
type Handler func(context.Context, Message) error

// Client is the pluggable messaging abstraction.
type Client interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient builds a messaging client based on configuration.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	switch cfg.Messaging.Driver {
	case "noop":
		logger.Info("messaging disabled; using noop client")
		return NewNoop(cfg.Messaging.Kafka.Topic), nil
	case "kafka":
		return newKafkaClient(lc, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

type noopClient struct {
	topic string
}

// NewNoop returns a client that drops published messages and blocks on Consume.
func NewNoop(topic string) Client { return noopClient{topic: topic} }

func (n noopClient) Publish(context.Context, Message) error { return nil }

func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }

type kafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
	topic  string
	logger *zap.Logger
}

func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *kafkaClient {
	kc := cfg.Messaging.Kafka

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kc.Brokers...),
		Topic:        kc.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Logger:       kafkaLogger{logger: logger},
		ErrorLogger:  kafkaLogger{logger: logger, errors: true},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        kc.Brokers,
		GroupID:        cfg.Messaging.ConsumerGroup,
		Topic:          kc.Topic,
		MinBytes:       kc.MinBytes,
		MaxBytes:       kc.MaxBytes,
		CommitInterval: kc.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  kc.ConnectTimeout,
			ClientID: kc.ClientID,
		},
	})

	client := &kafkaClient{writer: writer, reader: reader, topic: kc.Topic, logger: logger}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing kafka client")
			return errors.Join(writer.Close(), reader.Close())
		},
	})

	return client
}

// Publish writes one message. Keys route all events of one aggregate to the same partition.
func (k *kafkaClient) Publish(ctx context.Context, msg Message) error {
	out := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: toKafkaHeaders(msg.Headers)}
	return k.writer.WriteMessages(ctx, out)
}

func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		wrapped := Message{
			Topic:   msg.Topic,
			Key:     append([]byte(nil), msg.Key...),
			Value:   append([]byte(nil), msg.Value...),
			Headers: fromKafkaHeaders(msg.Headers),
			Offset:  msg.Offset,
			Time:    msg.Time,
		}

		if err := handler(ctx, wrapped); err != nil {
			// Uncommitted; the group redelivers after rebalance or restart.
			k.logger.Error("message handler failed", zap.Error(err), zap.Int64("offset", msg.Offset))
			continue
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Error(err))
		}
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(keys))
	for _, key := range keys {
		out = append(out, kafka.Header{Key: key, Value: []byte(headers[key])})
	}
	return out
}

func fromKafkaHeaders(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

type kafkaLogger struct {
	logger *zap.Logger
	errors bool
}

func (k kafkaLogger) Printf(msg string, args ...interface{}) {
	if k.errors {
		k.logger.Sugar().Warnf(msg, args...)
		return
	}
	k.logger.Sugar().Debugf(msg, args...)
}
