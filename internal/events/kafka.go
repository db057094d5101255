package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Producer is the subset of *kafka.Writer used by KafkaPublisher.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes events as JSON to a topic, keyed by machine id so
// that one machine's events stay in one partition.
type KafkaPublisher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

// NewKafkaPublisher returns a publisher writing to topic via producer.
func NewKafkaPublisher(log *slog.Logger, producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{log: log, producer: producer, topic: topic}
}

// Publish encodes ev and writes a single message.
func (p *KafkaPublisher) Publish(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(ev.Type)},
		{Key: "sequence", Value: []byte(strconv.FormatUint(ev.Sequence, 10))},
	}
	headers = injectTraceHeaders(ctx, headers)

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(ev.MachineID),
		Value:   payload,
		Headers: headers,
	}
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s event %d", ev.Type, ev.Sequence)
	}
	p.log.DebugContext(ctx, "machine event published", "sequence", ev.Sequence, "event_type", string(ev.Type), "topic", p.topic)
	return nil
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// NewKafkaWriter returns a writer for brokers. The topic is set per message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}
