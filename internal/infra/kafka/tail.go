package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	kgo "github.com/segmentio/kafka-go"

	"github.com/totegamma/aquamind/internal/domain"
)

// Tail reads events from the topic until ctx is done. Undecodable records
// are skipped.
func Tail(ctx context.Context, brokers []string, topic, groupID string, fn func(domain.Event) error) error {
	reader := kgo.NewReader(kgo.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var event domain.Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			slog.Warn("skipping undecodable record", slog.Int64("offset", m.Offset), slog.String("module", "kafka"))
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
