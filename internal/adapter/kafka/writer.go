package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/streams-chart-etl/internal/config"
	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// Writer publishes every song of a snapshot to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per song in a single WriteMessages call.
// Messages are keyed by song so the same song always lands on one partition.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Songs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Songs))
	for i := range snap.Songs {
		msg, err := serializeToMessage(snap.Songs[i], snap.ExtraColumns)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("snapshot published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a song into a Kafka message with sorted headers.
func serializeToMessage(song domain.Song, extraColumns []string) (kafkago.Message, error) {
	out, err := domain.SerializeSong(song, extraColumns)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize song %d: %w", song.ID, err)
	}
	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
