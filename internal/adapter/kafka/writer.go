// Package kafka publishes final feature rows to a sink topic for the
// downstream model-training consumer.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// Writer produces feature rows to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishFeatures serializes and publishes the feature table in a single
// WriteMessages call, keyed by FID so re-published tables compact cleanly.
func (w *Writer) PublishFeatures(ctx context.Context, rows []domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish feature rows: %w", err)
	}
	w.logger.Info("published feature rows", "count", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one feature row into a Kafka message.
func serializeToMessage(row domain.FeatureRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature row FID %d: %w", row.FID, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(row.FID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "weather_matched", Value: []byte(strconv.FormatBool(row.WeatherMatched))},
			{Key: "produced_at", Value: []byte(domain.Now().Format(time.RFC3339))},
		},
	}, nil
}
