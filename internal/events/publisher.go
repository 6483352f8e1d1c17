package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Envelope 事件信封
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher 领域事件投递
type Publisher interface {
	Enabled() bool
	PublishOrder(ctx context.Context, eventType string, orderCode string, data interface{}) error
	PublishBatch(ctx context.Context, eventType string, batchID uint, data interface{}) error
	Close() error
}

// MessageWriter kafka.Writer 的最小接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewPublisher 按配置创建投递器，未启用时返回空实现
func NewPublisher(cfg *config.KafkaConfig) Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	timeout := time.Duration(cfg.WriteTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewKafkaPublisher(
		newKafkaWriter(cfg.Brokers, cfg.OrderTopic, timeout),
		newKafkaWriter(cfg.Brokers, cfg.BatchTopic, timeout),
	)
}

func newKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher 基于 kafka-go 的事件投递，订单事件以订单编号为 key，批次事件以批次ID为 key
type KafkaPublisher struct {
	orders  MessageWriter
	batches MessageWriter
	once    sync.Once
}

// NewKafkaPublisher 创建 Kafka 投递器
func NewKafkaPublisher(orders, batches MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{orders: orders, batches: batches}
}

// Enabled 是否启用
func (p *KafkaPublisher) Enabled() bool {
	return p != nil && p.orders != nil && p.batches != nil
}

// PublishOrder 投递订单事件
func (p *KafkaPublisher) PublishOrder(ctx context.Context, eventType string, orderCode string, data interface{}) error {
	return p.write(ctx, p.orders, eventType, orderCode, data)
}

// PublishBatch 投递批次事件
func (p *KafkaPublisher) PublishBatch(ctx context.Context, eventType string, batchID uint, data interface{}) error {
	return p.write(ctx, p.batches, eventType, fmt.Sprintf("batch-%d", batchID), data)
}

func (p *KafkaPublisher) write(ctx context.Context, w MessageWriter, eventType, key string, data interface{}) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := json.Marshal(Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		logger.Warnw("event_publish_failed", "event_type", eventType, "key", key, "error", err)
		return err
	}
	return nil
}

// Close 关闭写入器
func (p *KafkaPublisher) Close() error {
	var firstErr error
	p.once.Do(func() {
		for _, w := range []MessageWriter{p.orders, p.batches} {
			if w == nil {
				continue
			}
			if err := w.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// NopPublisher 未启用 Kafka 时的空实现
type NopPublisher struct{}

// Enabled 未启用
func (NopPublisher) Enabled() bool { return false }

// PublishOrder 忽略
func (NopPublisher) PublishOrder(context.Context, string, string, interface{}) error { return nil }

// PublishBatch 忽略
func (NopPublisher) PublishBatch(context.Context, string, uint, interface{}) error { return nil }

// Close 忽略
func (NopPublisher) Close() error { return nil }
