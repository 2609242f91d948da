// Package kafka exports domain events to a kafka topic and reads them back.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/totegamma/aquamind/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// Exporter appends every event to a topic, keyed so that all events of one
// post land on the same partition.
type Exporter struct {
	w messageWriter
}

func NewExporter(brokers []string, topic string) *Exporter {
	w := &kgo.Writer{
		Addr:                   kgo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kgo.Message, err error) {
			if err != nil {
				slog.Warn(
					"kafka export failed",
					slog.Int("messages", len(messages)),
					slog.String("error", err.Error()),
					slog.String("module", "kafka"),
				)
			}
		},
	}
	return &Exporter{w: w}
}

func (e *Exporter) Publish(ctx context.Context, event domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.w.WriteMessages(ctx, kgo.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  time.Now(),
		Headers: []kgo.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
}

func (e *Exporter) Close() error {
	return e.w.Close()
}
