// Package kafka relays outbox messages to a Kafka compatible broker.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// EventTypeHeader carries the order event type so consumers can route without decoding.
const EventTypeHeader = "event_type"

type Config struct {
	Brokers []string
	Topic   string
	// DeliveryTimeout bounds how long a record may wait for acknowledgement.
	DeliveryTimeout time.Duration
}

// Publisher implements ports.EventPublisher. Records are keyed by order id so the
// events of one order stay in one partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	tracer trace.Tracer
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout),
		kgo.ProducerBatchCompression(kgo.Lz4Compression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
		tracer: otel.Tracer("dentallab/kafka"),
	}, nil
}

// Publish blocks until the broker acknowledges the record or ctx ends.
func (p *Publisher) Publish(ctx context.Context, key string, eventType string, payload []byte) error {
	ctx, span := p.tracer.Start(ctx, "outbox.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.kafka.message.key", key),
			attribute.String("event.type", eventType),
		))
	defer span.End()

	record := &kgo.Record{
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: EventTypeHeader, Value: []byte(eventType)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{record: record})

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("produce %s for %s: %w", eventType, key, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}

// headerCarrier adapts record headers to the OpenTelemetry propagation API.
type headerCarrier struct {
	record *kgo.Record
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.record.Headers {
		if h.Key == key {
			c.record.Headers[i].Value = []byte(value)
			return
		}
	}
	c.record.Headers = append(c.record.Headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.record.Headers))
	for _, h := range c.record.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
